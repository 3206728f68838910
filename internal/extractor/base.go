package extractor

// Unit kinds produced for a script.
const (
	UnitClass    = "class"
	UnitMethod   = "method"
	UnitConstant = "constant"
	UnitVariable = "variable"
	UnitSignal   = "signal"
	UnitEnum     = "enum"
)

// CodeUnit is the universal container for one declaration extracted from a
// script: the script's class itself, or one of its members.
type CodeUnit struct {
	ID        string      `json:"id"`
	Filepath  string      `json:"filepath"`
	Class     string      `json:"class"` // owning class key
	StartLine int         `json:"start_line"`
	EndLine   int         `json:"end_line"`
	UnitType  string      `json:"unit_type"`
	Name      string      `json:"name"`
	Signature string      `json:"signature"`
	Details   interface{} `json:"details"` // one of the *Details types in schema.go
}
