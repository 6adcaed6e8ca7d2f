package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alovak/cardflow-paysim/internal/carddata"
	"github.com/alovak/cardflow-paysim/internal/expiry"
	"github.com/alovak/cardflow-paysim/internal/formclient"
)

var (
	flagURL         = flag.String("url", "http://127.0.0.1:8080", "paysim base URL")
	flagName        = flag.String("name", "Jane Doe", "card holder name")
	flagBIN         = flag.String("bin", "411111", "6/8-digit BIN prefix")
	flagMonthsAhead = flag.Int("months-ahead", 24, "expiry months from now")
	flagPrint       = flag.Bool("print", false, "print the generated card only, do not POST")
)

func main() {
	flag.Parse()
	must(carddata.ValidateBIN(*flagBIN))
	if *flagMonthsAhead < 0 {
		fail("-months-ahead must not be negative")
	}

	name := normalizeName(*flagName)
	if name == "" {
		fail("-name is required")
	}

	month, year := expiryAhead(expiry.In(time.Now()), *flagMonthsAhead)
	card := formclient.Card{
		HolderName:  name,
		Number:      must1(carddata.GeneratePAN(*flagBIN)),
		CVV:         must1(carddata.RandomDigits(carddata.CVVLength)),
		ExpiryMonth: month,
		ExpiryYear:  year,
	}

	fmt.Printf("PAN: %s\nEXP(card-face): %s\nNAME: %s\n", carddata.MaskPAN(card.Number), expiry.CardFace(month, year), name)

	if *flagPrint {
		fmt.Printf("CARD NUMBER: %s\nCVV: %s\n", card.Number, card.CVV)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res := must1(formclient.New(*flagURL, nil).Submit(ctx, card))
	if !res.Approved() {
		fmt.Fprintln(os.Stderr, res.Error)
		for _, msg := range res.FieldErrors {
			fmt.Fprintf(os.Stderr, "  - %s\n", msg)
		}
		os.Exit(1)
	}
	fmt.Println(res.Message)
}

// expiryAhead returns the month and year that lie months after now.
func expiryAhead(now time.Time, months int) (int, int) {
	t := time.Date(now.Year(), now.Month()+time.Month(months), 1, 0, 0, 0, 0, now.Location())
	return int(t.Month()), t.Year()
}

// maxNameRunes matches the form's max=100 rule, which counts runes.
const maxNameRunes = 100

func normalizeName(name string) string {
	normalized := strings.Join(strings.Fields(name), " ")
	if r := []rune(normalized); len(r) > maxNameRunes {
		return strings.TrimSpace(string(r[:maxNameRunes]))
	}
	return normalized
}

func must(err error) {
	if err != nil {
		fail("%v", err)
	}
}
func must1[T any](v T, err error) T {
	if err != nil {
		fail("%v", err)
	}
	return v
}
func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
