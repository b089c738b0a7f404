package catalog

import "regexp"

// TableInputState classifies the outcome of scanning a procedure definition
// for its table-valued input binding.
type TableInputState int

const (
	// TableInputAbsent means the definition contains no input dataset binding.
	TableInputAbsent TableInputState = iota
	// TableInputFound means exactly one binding was found.
	TableInputFound
	// TableInputAmbiguous means more than one binding matched. The name is
	// left unset; callers can distinguish this from a plain absence.
	TableInputAmbiguous
)

// tableInputPattern matches the synthetic dataset-name assignment embedded in
// a generated procedure body: @input_data_1_name = N'<identifier>'.
var tableInputPattern = regexp.MustCompile(`@input_data_1_name\s*=\s*N'([A-Za-z_][A-Za-z0-9_]*)'`)

// ExtractTableInputName scans a stored procedure's definition text for the
// name its table-valued input parameter is bound under. The binding is not
// part of the declared parameter list, so it can only be recovered from the
// source text. Zero matches and multiple matches are reported explicitly
// rather than collapsed into "not found".
func ExtractTableInputName(definition string) (string, TableInputState) {
	matches := tableInputPattern.FindAllStringSubmatch(definition, -1)
	switch len(matches) {
	case 0:
		return "", TableInputAbsent
	case 1:
		return matches[0][1], TableInputFound
	default:
		return "", TableInputAmbiguous
	}
}
