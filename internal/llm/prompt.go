package llm

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/catalog"
	"github.com/joseph-ayodele/medparams/internal/common"
)

// fallbackTemplate is used when prompt_template.txt cannot be read.
const fallbackTemplate = `You are a medical data extraction assistant. Your task is to extract medical parameters from the provided text.

PARAMETERS TO EXTRACT:
{parameters_text}

MEDICAL TEXT:
{combined_text}

INSTRUCTIONS:
1. Carefully analyze the medical text and extract ONLY the parameters listed above.
2. Only extract parameters when you are confident they exist in the text.
3. Not all parameters will be present in the text, only extract what you find.
4. For each parameter found, output one line in the form: parameter name,value
5. Do not include any explanations, only the extracted parameters.
6. If you cannot find a parameter, do not include it in your response.
`

// PromptContext maps slot names to the text substituted for them.
type PromptContext map[string]string

// Keys returns the slot names in sorted order.
func (c PromptContext) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SlotSchema is the versioned list of slots every prompt context must carry.
// Template slot names and content file base names must stay in lockstep;
// the schema makes the required part of that pairing explicit.
type SlotSchema struct {
	Version  string   `yaml:"version"`
	Required []string `yaml:"required"`
}

// DefaultSlotSchema applies when the content dir has no slots.yaml.
var DefaultSlotSchema = SlotSchema{
	Version:  "v1",
	Required: []string{constants.SlotCombinedText, constants.SlotParametersText},
}

// LoadSlotSchema reads slots.yaml from dir, falling back to DefaultSlotSchema
// when the file does not exist. A malformed file is a TEMPLATE_ERROR.
func LoadSlotSchema(dir string) (SlotSchema, error) {
	path := filepath.Join(dir, constants.SlotSchemaFile)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSlotSchema, nil
	}
	if err != nil {
		return SlotSchema{}, common.TemplateError("read slot schema "+path, err)
	}
	var s SlotSchema
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return SlotSchema{}, common.TemplateError("parse slot schema "+path, err)
	}
	if s.Version == "" {
		return SlotSchema{}, common.TemplateError("slot schema "+path+" has no version", nil)
	}
	return s, nil
}

// PromptAssembler merges content-directory data blocks and document text into
// one prompt.
type PromptAssembler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewPromptAssembler(cat *catalog.Catalog, logger *slog.Logger) *PromptAssembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PromptAssembler{catalog: cat, logger: logger}
}

// CreatePrompt joins texts with a blank line and renders the template.
func (a *PromptAssembler) CreatePrompt(texts []string, t constants.AnalysisType) (string, error) {
	tpl := a.loadTemplate()
	slots, err := TemplateSlots(tpl)
	if err != nil {
		return "", err
	}
	schema, err := LoadSlotSchema(a.catalog.Dir())
	if err != nil {
		return "", err
	}
	ctx := a.BuildContext(texts, t)
	if missing := missingSlots(schema.Required, ctx); len(missing) > 0 {
		return "", common.TemplateError(fmt.Sprintf("slot schema %s: required slots have no content: %s",
			schema.Version, strings.Join(missing, ", ")), nil)
	}
	out, err := RenderTemplate(tpl, ctx)
	if err != nil {
		return "", err
	}
	a.logger.Debug("llm.prompt.assembled",
		"analysis_type", t,
		"texts", len(texts),
		"slots", len(slots),
		"prompt_len", len(out),
	)
	return out, nil
}

// UnbackedSlots lists the template slots the content directory cannot fill
// for t. Requests of that analysis type would fail with TEMPLATE_ERROR.
func (a *PromptAssembler) UnbackedSlots(t constants.AnalysisType) ([]string, error) {
	slots, err := TemplateSlots(a.loadTemplate())
	if err != nil {
		return nil, err
	}
	return missingSlots(slots, a.BuildContext(nil, t)), nil
}

// BuildContext collects every *.txt data block in the content directory
// (slot = base name), the combined text, and the formatted catalog blocks.
func (a *PromptAssembler) BuildContext(texts []string, t constants.AnalysisType) PromptContext {
	ctx := PromptContext{}
	dir := a.catalog.Dir()

	entries, err := os.ReadDir(dir)
	if err != nil {
		a.logger.Warn("llm.prompt.content_dir_unreadable", "dir", dir, "error", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".txt") || name == constants.TemplateFile {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			a.logger.Warn("llm.prompt.data_block_unreadable", "file", name, "error", err)
			continue
		}
		ctx[strings.TrimSuffix(name, filepath.Ext(name))] = strings.TrimSpace(string(raw))
	}

	ctx[constants.SlotCombinedText] = strings.Join(texts, "\n\n")

	params, report := a.catalog.LoadParametersWithReport(t)
	if !report.Degraded() {
		ctx[constants.SlotParametersText] = catalog.FormatParameters(params)
		if t == constants.AnalysisExtended {
			base := strings.TrimSuffix(constants.ParametersExtendedFile, filepath.Ext(constants.ParametersExtendedFile))
			if v, ok := ctx[base]; ok {
				ctx[constants.SlotParameters] = v
			}
		}
	}

	abbrs, report := a.catalog.LoadAbbreviationsWithReport()
	if !report.Degraded() {
		ctx[constants.SlotAbbreviationsText] = catalog.FormatAbbreviations(abbrs)
	}
	return ctx
}

func (a *PromptAssembler) loadTemplate() string {
	path := filepath.Join(a.catalog.Dir(), constants.TemplateFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn("llm.prompt.template_fallback", "path", path, "error", err)
		return fallbackTemplate
	}
	return string(raw)
}

// RenderTemplate substitutes {slot} placeholders strictly: every referenced
// slot must exist in ctx. "{{" and "}}" produce literal braces.
func RenderTemplate(tpl string, ctx PromptContext) (string, error) {
	segs, err := parseTemplate(tpl)
	if err != nil {
		return "", err
	}
	return render(segs, ctx)
}

// TemplateSlots lists the distinct slot names referenced by tpl, in order of
// first appearance.
func TemplateSlots(tpl string) ([]string, error) {
	segs, err := parseTemplate(tpl)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, s := range segs {
		if s.slot != "" && !seen[s.slot] {
			seen[s.slot] = true
			out = append(out, s.slot)
		}
	}
	return out, nil
}

type segment struct {
	literal string
	slot    string
}

func parseTemplate(tpl string) ([]segment, error) {
	var segs []segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch c {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return nil, common.TemplateError(fmt.Sprintf("unclosed '{' at offset %d", i), nil)
			}
			name := tpl[i+1 : i+1+end]
			if !validSlotName(name) {
				return nil, common.TemplateError(fmt.Sprintf("invalid slot name %q at offset %d", name, i), nil)
			}
			flush()
			segs = append(segs, segment{slot: name})
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, common.TemplateError(fmt.Sprintf("single '}' at offset %d", i), nil)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

func validSlotName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func render(segs []segment, ctx PromptContext) (string, error) {
	var missing []string
	var b strings.Builder
	for _, s := range segs {
		if s.slot == "" {
			b.WriteString(s.literal)
			continue
		}
		v, ok := ctx[s.slot]
		if !ok {
			missing = append(missing, s.slot)
			continue
		}
		b.WriteString(v)
	}
	if len(missing) > 0 {
		return "", common.TemplateError("template references slots missing from context: "+strings.Join(dedupe(missing), ", "), nil)
	}
	return b.String(), nil
}

func missingSlots(required []string, ctx PromptContext) []string {
	var missing []string
	for _, r := range required {
		if _, ok := ctx[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
