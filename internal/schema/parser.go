package schema

import (
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/rs/zerolog/log"
)

// constantPattern matches enum constant names extracted from a referenced
// enum-like definition (SCREAMING_SNAKE declaration style).
var constantPattern = regexp.MustCompile(`^[A-Z_]+$`)

// knownEnums maps external enumeration definitions that cannot be resolved
// from the source itself to their value sets. Checked before any structural
// enum detection.
var knownEnums = map[string][]string{
	"#ResourceState": {"ACTIVE", "DISABLED", "PENDING", "DELETED"},
	"#ScheduleState": {"SCHEDULED", "RUNNING", "FINISHED", "FAILED"},
	"#VaultKeyUsage": {"SIGNING", "ENCRYPTION", "AUTHENTICATION"},
	"#AccessLevel":   {"READ", "WRITE", "ADMIN"},
}

// Parser converts CUE definitions into ModelSchemas.
//
// Typing policy: primitive width collapses (all int/float variants become
// number); list and map markers set IsArray/IsMap without changing the
// element's base type; an unrecognized reference or struct defaults to
// object. A field whose constraints cannot be classified is omitted from
// the model rather than failing the whole parse.
type Parser struct {
	ctx *cue.Context
}

// NewParser creates a Parser with a fresh CUE context.
func NewParser() *Parser {
	return &Parser{ctx: cuecontext.New()}
}

// Parse compiles src and extracts the definition #<modelName> into a
// ModelSchema. Field order follows declaration order.
func (p *Parser) Parse(modelName, src string) (*ModelSchema, error) {
	root := p.ctx.CompileString(src)
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compiling model source: %w", err)
	}

	def := root.LookupPath(cue.ParsePath("#" + modelName))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("definition #%s not found: %w", modelName, err)
	}

	model := &ModelSchema{Name: modelName}

	iter, err := def.Fields(cue.Optional(true))
	if err != nil {
		return nil, fmt.Errorf("iterating fields of #%s: %w", modelName, err)
	}
	for iter.Next() {
		label := strings.TrimSuffix(iter.Selector().String(), "?")
		if strings.HasPrefix(label, "_") {
			continue
		}
		fs := p.classify(label, iter.Value(), iter.IsOptional())
		if fs == nil {
			log.Warn().Str("model", modelName).Str("field", label).
				Msg("schema: unclassifiable field omitted")
			continue
		}
		model.Fields = append(model.Fields, *fs)
	}

	return model, nil
}

// classify determines the FieldSchema for one CUE field value. Returns nil
// when the value cannot be classified.
func (p *Parser) classify(name string, val cue.Value, optional bool) *FieldSchema {
	fs := &FieldSchema{Name: name, Required: !optional}
	p.applyAttributes(fs, val)

	// Container markers first: they wrap the element's base type.
	if isList(val) {
		fs.IsArray = true
		elem := listElement(val)
		if elem == nil {
			return nil
		}
		return p.classifyBase(fs, *elem)
	}
	if elem, ok := mapElement(val); ok {
		fs.IsMap = true
		return p.classifyBase(fs, elem)
	}

	return p.classifyBase(fs, val)
}

// classifyBase fills in the base type of fs from val.
func (p *Parser) classifyBase(fs *FieldSchema, val cue.Value) *FieldSchema {
	// time.Time collapses to string.
	if isTimeValue(val) {
		fs.Type = FieldString
		return fs
	}

	// Hard-coded external enumerations win over structural detection.
	ref := findReference(val)
	if ref != "" {
		if values, ok := knownEnums[ref]; ok {
			fs.Type = FieldEnum
			fs.EnumValues = values
			return fs
		}
	}

	// A field referencing a local definition reports SelectorOp from Expr,
	// not the target's disjunction; resolve the reference before testing.
	enumVal := val
	if ref != "" {
		if deref := cue.Dereference(val); deref.Err() == nil {
			enumVal = deref
		}
	}

	// Enum-like block resolved through a reference: constants must follow
	// the declaration pattern or the field degrades to a plain string/object.
	if isStringDisjunction(enumVal) {
		values := disjunctionValues(enumVal)
		if ref != "" {
			values = filterConstants(values)
			if len(values) == 0 {
				fs.Type = FieldObject
				return fs
			}
		}
		if len(values) == 0 {
			return nil
		}
		fs.Type = FieldEnum
		fs.EnumValues = values
		return fs
	}

	kind := val.IncompleteKind()
	if kind == cue.BottomKind {
		kind = inferKind(val)
	}

	switch kind {
	case cue.StringKind:
		fs.Type = FieldString
		if pat := extractPattern(val); pat != "" && fs.Pattern == "" {
			fs.Pattern = pat
		}
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		fs.Type = FieldNumber
	case cue.BoolKind:
		fs.Type = FieldBoolean
	case cue.StructKind:
		fs.Type = FieldObject
	default:
		return nil
	}
	return fs
}

// applyAttributes reads the field's CUE attributes into fs.
//
// @notnull() with no groups key marks the field unconditionally required;
// @notnull(groups="create,update") records group-scoped rules instead and
// leaves Required untouched by the attribute (the CUE optional marker still
// governs the unconditional contract).
func (p *Parser) applyAttributes(fs *FieldSchema, val cue.Value) {
	if a := val.Attribute("notnull"); a.Err() == nil {
		if groups, found, _ := a.Lookup(0, "groups"); found {
			if fs.ValidationGroups == nil {
				fs.ValidationGroups = make(map[ValidationGroup]GroupRule)
			}
			for _, g := range strings.Split(groups, ",") {
				g = strings.TrimSpace(g)
				if g != "" {
					fs.ValidationGroups[ValidationGroup(g)] = RuleNotNull
				}
			}
		} else {
			fs.Required = true
		}
	}
	if a := val.Attribute("readonly"); a.Err() == nil {
		fs.ReadOnly = true
	}
	if a := val.Attribute("uionly"); a.Err() == nil {
		fs.UIOnly = true
	}
	if a := val.Attribute("desc"); a.Err() == nil {
		if s, err := a.String(0); err == nil {
			fs.Description = s
		}
	}
	if a := val.Attribute("pattern"); a.Err() == nil {
		if s, err := a.String(0); err == nil {
			fs.Pattern = s
		}
	}
	if a := val.Attribute("showwhen"); a.Err() == nil {
		dep, err1 := a.String(0)
		values, err2 := a.String(1)
		if err1 == nil && err2 == nil && dep != "" {
			fs.Visibility = &Visibility{
				DependsOn: dep,
				ShowWhen:  strings.Split(values, "|"),
			}
		}
	}
}

// ── CUE structural helpers ──────────────────────────────────────────────────

func isList(val cue.Value) bool {
	if val.IncompleteKind() == cue.ListKind {
		return true
	}
	op, args := val.Expr()
	if op == cue.AndOp {
		for _, arg := range args {
			if arg.IncompleteKind() == cue.ListKind {
				return true
			}
		}
	}
	return false
}

// listElement returns the element value of a list type, or nil.
func listElement(val cue.Value) *cue.Value {
	elem := val.LookupPath(cue.MakePath(cue.AnyIndex))
	if elem.Err() == nil {
		return &elem
	}
	op, args := val.Expr()
	if op == cue.AndOp {
		for _, arg := range args {
			if arg.IncompleteKind() == cue.ListKind {
				ev := arg.LookupPath(cue.MakePath(cue.AnyIndex))
				if ev.Err() == nil {
					return &ev
				}
			}
		}
	}
	return nil
}

// mapElement detects the {[string]: T} pattern and returns T.
func mapElement(val cue.Value) (cue.Value, bool) {
	if val.IncompleteKind() != cue.StructKind {
		return cue.Value{}, false
	}
	elem := val.LookupPath(cue.MakePath(cue.AnyString))
	if elem.Err() != nil {
		return cue.Value{}, false
	}
	// An open struct ({...}) admits any field but declares no element type;
	// that is an object, not a map.
	if elem.IncompleteKind() == cue.TopKind {
		return cue.Value{}, false
	}
	// A struct with named fields is an object, not a map, even if it also
	// carries a pattern constraint.
	iter, err := val.Fields()
	if err == nil && iter.Next() {
		return cue.Value{}, false
	}
	return elem, true
}

// findReference returns the last selector of a referenced definition, or "".
func findReference(val cue.Value) string {
	_, path := val.ReferencePath()
	if path.String() != "" {
		sels := path.Selectors()
		if len(sels) > 0 {
			return sels[len(sels)-1].String()
		}
	}
	op, args := val.Expr()
	if op == cue.AndOp || op == cue.OrOp {
		for _, arg := range args {
			if ref := findReference(arg); ref != "" {
				return ref
			}
		}
	}
	return ""
}

func isTimeValue(val cue.Value) bool {
	op, args := val.Expr()
	if op == cue.SelectorOp && len(args) >= 2 {
		if s, err := args[1].String(); err == nil && s == "Time" {
			return true
		}
	}
	ref := findReference(val)
	return ref == "time.Time" || ref == "Time"
}

// isStringDisjunction reports whether val is a disjunction whose branches
// are all concrete strings.
func isStringDisjunction(val cue.Value) bool {
	op, args := val.Expr()
	if op != cue.OrOp || len(args) < 2 {
		return false
	}
	for _, arg := range args {
		check := arg
		aOp, aArgs := arg.Expr()
		if aOp == cue.SelectorOp && len(aArgs) > 0 {
			check = aArgs[0]
		}
		if check.IncompleteKind() != cue.StringKind {
			return false
		}
		if _, err := check.String(); err != nil {
			if d, ok := check.Default(); ok {
				if _, err := d.String(); err != nil {
					return false
				}
			} else {
				return false
			}
		}
	}
	return true
}

// disjunctionValues extracts the branch strings in declaration order.
func disjunctionValues(val cue.Value) []string {
	op, args := val.Expr()
	if op != cue.OrOp {
		return nil
	}
	var values []string
	for _, arg := range args {
		if s, err := arg.String(); err == nil {
			values = append(values, s)
			continue
		}
		if d, ok := arg.Default(); ok {
			if s, err := d.String(); err == nil {
				values = append(values, s)
			}
		}
	}
	return values
}

// filterConstants keeps only values that look like declared constants.
func filterConstants(values []string) []string {
	var kept []string
	for _, v := range values {
		if constantPattern.MatchString(v) {
			kept = append(kept, v)
		}
	}
	return kept
}

// inferKind walks the expression tree of a bottom value produced by
// conflicting conditional constraints.
func inferKind(val cue.Value) cue.Kind {
	op, args := val.Expr()
	if op == cue.AndOp || op == cue.OrOp {
		for _, arg := range args {
			if k := arg.IncompleteKind(); k != cue.BottomKind {
				return k
			}
			if k := inferKind(arg); k != cue.BottomKind {
				return k
			}
		}
	}
	return cue.BottomKind
}

// extractPattern returns the regex constraint on a string value, if any.
func extractPattern(val cue.Value) string {
	op, args := val.Expr()
	if op == cue.RegexMatchOp && len(args) >= 2 {
		if s, err := args[1].String(); err == nil {
			return s
		}
	}
	if op == cue.AndOp {
		for _, arg := range args {
			if p := extractPattern(arg); p != "" {
				return p
			}
		}
	}
	return ""
}
