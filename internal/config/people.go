package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/deduction"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
)

// PeopleFile is the TOML layout of the people file:
//
//	[people.maru]
//	rate = 275
//	deduction = "1/3"
type PeopleFile struct {
	People map[string]PersonEntry `toml:"people"`
}

type PersonEntry struct {
	Rate      tomlValue `toml:"rate"`
	Deduction tomlValue `toml:"deduction"`
}

// tomlValue keeps a scalar as text so integers, floats and strings are all
// accepted.
type tomlValue string

func (v *tomlValue) UnmarshalTOML(data any) error {
	switch x := data.(type) {
	case string:
		*v = tomlValue(x)
	case int64:
		*v = tomlValue(decimal.NewFromInt(x).String())
	case float64:
		*v = tomlValue(decimal.NewFromFloat(x).String())
	default:
		return fmt.Errorf("unsupported value %v", data)
	}

	return nil
}

// DefaultPeople is used when no people file exists.
var DefaultPeople = PeopleFile{
	People: map[string]PersonEntry{
		"maru":  {Rate: "275", Deduction: "1/3"},
		"marty": {Rate: "400", Deduction: "1/2"},
	},
}

// People holds the per-person settings the ledger is built with.
type People struct {
	Rates      person.RateTable
	Deductions deduction.Rules
}

// LoadPeople reads the people file at path. A missing file yields DefaultPeople.
func LoadPeople(path string) (People, error) {
	file := DefaultPeople

	if path == "" {
		return People{}, errors.New("people file path is empty")
	}

	if _, err := os.Stat(path); err == nil {
		file = PeopleFile{}
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return People{}, fmt.Errorf("failed to decode people file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return People{}, fmt.Errorf("failed to stat people file: %w", err)
	}

	return file.Resolve()
}

// Resolve converts the decoded file into rate and deduction tables.
func (f PeopleFile) Resolve() (People, error) {
	rates := make(map[person.Person]decimal.Decimal, len(f.People))
	rules := make(deduction.Rules, len(f.People))

	for name, entry := range f.People {
		p := person.Person(strings.ToLower(strings.TrimSpace(name)))

		rate, err := decimal.NewFromString(string(entry.Rate))
		if err != nil {
			return People{}, fmt.Errorf("rate for %s: %w", name, err)
		}

		rates[p] = rate

		if entry.Deduction == "" {
			continue
		}

		frac, err := deduction.ParseFraction(string(entry.Deduction))
		if err != nil {
			return People{}, fmt.Errorf("deduction for %s: %w", name, err)
		}

		rules[p] = frac
	}

	table, err := person.NewRateTable(rates)
	if err != nil {
		return People{}, fmt.Errorf("people file: %w", err)
	}

	return People{Rates: table, Deductions: rules}, nil
}
