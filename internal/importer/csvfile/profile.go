package csvfile

// amountMode determines how amounts and record types are read from a row.
type amountMode int

const (
	// amountLabeled means an unsigned amount plus a "Typ" column holding
	// "Příjem" or "Výdaj", as written by the finance export.
	amountLabeled amountMode = iota
	// amountSigned means one signed column; negative amounts are expenses.
	amountSigned
	// amountSplit means separate expense and income columns.
	amountSplit
)

// Profile describes the column layout of a supported CSV file.
type Profile struct {
	Name        string
	DateCol     string
	DescCol     string
	AmountMode  amountMode
	AmountCol   string // amountLabeled, amountSigned
	TypeCol     string // amountLabeled
	DebitCol    string // amountSplit
	CreditCol   string // amountSplit
	CurrencyCol string // optional
	CategoryCol string // optional
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountLabeled:
		cols = append(cols, p.AmountCol, p.TypeCol)
	case amountSigned:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles are tried in order, so more specific layouts come first.
var profiles = []Profile{
	{
		Name:        "export",
		DateCol:     "Datum",
		DescCol:     "Popis",
		AmountMode:  amountLabeled,
		AmountCol:   "Částka",
		TypeCol:     "Typ",
		CurrencyCol: "Měna",
		CategoryCol: "Kategorie",
	},
	{
		Name:        "karta",
		DateCol:     "Datum",
		DescCol:     "Popis",
		AmountMode:  amountSplit,
		DebitCol:    "Výdaj",
		CreditCol:   "Příjem",
		CurrencyCol: "Měna",
	},
	{
		Name:        "výpis",
		DateCol:     "Datum",
		DescCol:     "Popis",
		AmountMode:  amountSigned,
		AmountCol:   "Částka",
		CurrencyCol: "Měna",
	},
}
