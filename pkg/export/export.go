// Package export turns stored candidate records into CSV files, WhatsApp links
// and plain-text summaries.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
)

// DefaultCountryCode is prefixed to national phone numbers.
const DefaultCountryCode = "55"

// ErrNoPhone is returned when a record has no usable phone number.
var ErrNoPhone = errors.New("record has no phone number")

// Labels are the dashboard captions of each answer field.
var Labels = map[domain.Field]string{
	domain.FieldFullName:        "Nome",
	domain.FieldAge:             "Idade",
	domain.FieldPhone:           "WhatsApp",
	domain.FieldMotivation:      "Motivação",
	domain.FieldReadingRelation: "Relação c/ Leitura",
	domain.FieldAvailability:    "Disponibilidade",
	domain.FieldGroupBehavior:   "Comportamento em Grupo",
	domain.FieldWhyMatch:        "Por que combina",
}

// Header returns the CSV column names.
func Header() []string {
	cols := []string{"id", "created_at"}
	for _, f := range domain.Fields {
		cols = append(cols, string(f))
	}
	return cols
}

// WriteCSV writes a header row and one row per record, in the given order.
func WriteCSV(w io.Writer, records []domain.StoredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.ID, r.CreatedAt.UTC().Format(time.RFC3339)}
		for _, f := range domain.Fields {
			row = append(row, r.Get(f))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WhatsAppLink builds a wa.me click-to-chat link. Numbers of national length
// (at most 11 digits) get the country code prefixed.
func WhatsAppLink(phone, countryCode, message string) (string, error) {
	digits := flow.Digits(phone)
	if digits == "" {
		return "", ErrNoPhone
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if len(digits) <= flow.MaxPhoneDigits {
		digits = flow.Digits(countryCode) + digits
	}

	link := "https://wa.me/" + digits
	if message != "" {
		// wa.me does not decode '+' as a space.
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	}
	return link, nil
}

// Greeting is the opening message of a WhatsApp link for a candidate.
func Greeting(r domain.StoredRecord) string {
	name := strings.TrimSpace(r.FullName)
	if i := strings.IndexByte(name, ' '); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return "Olá! Recebemos sua inscrição no Club Livro."
	}
	return fmt.Sprintf("Olá, %s! Recebemos sua inscrição no Club Livro.", name)
}

// Summary renders a record as labeled lines, for messaging.
func Summary(r domain.StoredRecord) string {
	var b strings.Builder
	b.WriteString("Nova inscrição")
	if !r.CreatedAt.IsZero() {
		b.WriteString(" em ")
		b.WriteString(r.CreatedAt.Local().Format("02/01/2006 15:04"))
	}
	b.WriteString("\n")
	for _, f := range domain.Fields {
		v := strings.TrimSpace(r.Get(f))
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "\n%s: %s", Labels[f], v)
	}
	return b.String()
}
