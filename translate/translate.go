// Package translate localizes the user facing text of the UVM tools.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"go.uber.org/zap"
	"golang.org/x/text/message"

	"github.com/ezrec/uvm/internal"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		internal.Logger().Warn("translate: locale", zap.Error(err))
	}

	SetLocales(locales...)
}

// SetLocales selects the message catalog best matching the given locales.
// With no locales, en-US is used.
func SetLocales(locales ...string) {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
