package constants

// File names inside the content directory. Every *.txt file there also becomes
// a prompt slot named after its base name.
const (
	TemplateFile           = "prompt_template.txt"
	ParametersFile         = "parameters.txt"
	ParametersExtendedFile = "parameters_extended.txt"
	AbbreviationsFile      = "abbreviations.txt"
	SlotSchemaFile         = "slots.yaml"
)

// Derived slot names that are not backed by a file of the same name.
const (
	SlotCombinedText      = "combined_text"
	SlotParametersText    = "parameters_text"
	SlotAbbreviationsText = "abbreviations_text"
	SlotParameters        = "parameters"
)

// PlaceholderPrefix is the stem of anonymization placeholders: [PERSON_1], [PERSON_2], ...
const PlaceholderPrefix = "PERSON_"

// SystemInstruction is sent as the system turn of every completion request.
const SystemInstruction = "You are a medical parameter extraction assistant."
