package models

// Record is one normalized statement entry. All eight fields are always
// present; a field with no source data is the empty string.
type Record struct {
	Date     string `json:"date"`
	Paymode  string `json:"paymode"`
	Info     string `json:"info"`
	Payee    string `json:"payee"`
	Memo     string `json:"memo"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Tags     string `json:"tags"`
}

// Normalized field names in output order.
const (
	FieldDate     = "date"
	FieldPaymode  = "paymode"
	FieldInfo     = "info"
	FieldPayee    = "payee"
	FieldMemo     = "memo"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldTags     = "tags"
)

// FieldNames lists the normalized fields in the fixed output order.
var FieldNames = []string{
	FieldDate,
	FieldPaymode,
	FieldInfo,
	FieldPayee,
	FieldMemo,
	FieldAmount,
	FieldCategory,
	FieldTags,
}

// IsField reports whether name is one of the eight normalized fields.
func IsField(name string) bool {
	for _, f := range FieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// NewRecord builds a Record from a field-name keyed map. Unknown keys are
// ignored and missing keys stay empty.
func NewRecord(values map[string]string) Record {
	return Record{
		Date:     values[FieldDate],
		Paymode:  values[FieldPaymode],
		Info:     values[FieldInfo],
		Payee:    values[FieldPayee],
		Memo:     values[FieldMemo],
		Amount:   values[FieldAmount],
		Category: values[FieldCategory],
		Tags:     values[FieldTags],
	}
}

// Values returns the field values in FieldNames order.
func (r Record) Values() []string {
	return []string{r.Date, r.Paymode, r.Info, r.Payee, r.Memo, r.Amount, r.Category, r.Tags}
}
