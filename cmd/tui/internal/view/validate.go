package view

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/vykazy/internal/money"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

func validateDate(s string) error {
	d, err := timefmt.ParseDate(strings.TrimSpace(s))
	if err != nil || d.IsZero() {
		return errors.New("zadejte datum RRRR-MM-DD")
	}

	return nil
}

func validateOptionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return validateDate(s)
}

func validateClock(s string) error {
	if _, err := time.Parse("15:04", strings.TrimSpace(s)); err != nil {
		return errors.New("zadejte čas HH:MM")
	}

	return nil
}

func validateMinutes(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("zadejte nezáporný počet minut")
	}

	return nil
}

func validateAmount(s string) error {
	d, err := money.Parse(s)
	if err != nil || !d.IsPositive() {
		return errors.New("zadejte kladnou částku")
	}

	return nil
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("pole je povinné")
	}

	return nil
}
