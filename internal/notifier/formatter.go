package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"BarSentinel/internal/model"
)

// FormatSnapshotReport formats indicator snapshots into a Telegram message.
func FormatSnapshotReport(snaps []*model.Snapshot, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>BarSentinel report</b> | %s\n", now.UTC().Format("2006-01-02 15:04 UTC")))
	if len(snaps) == 0 {
		b.WriteString("\nNo data collected.\n")
		return b.String()
	}

	current := ""
	for _, s := range snaps {
		digits := s.Instrument.DisplayDigits
		if s.Instrument.Name != current {
			current = s.Instrument.Name
			b.WriteString(fmt.Sprintf("\n<b>%s</b>", current))
			if s.Instrument.Currency != "" {
				b.WriteString(" (" + s.Instrument.Currency + ")")
			}
			b.WriteString("\n")
		}

		smaDev := 0.0
		if s.SMA != 0 {
			smaDev = (s.Close - s.SMA) / s.SMA * 100
		}
		b.WriteString(fmt.Sprintf("⏱ %s · %d bars · %s\n", s.Granularity, s.Bars, time.UnixMicro(s.Time).UTC().Format("01-02 15:04")))
		b.WriteString(fmt.Sprintf("  Close: %s (SMA %+.1f%%)\n", Price(s.Close, digits), smaDev))
		b.WriteString(fmt.Sprintf("  SMA: %s | EMA: %s\n", Price(s.SMA, digits), Price(s.EMA, digits)))
		b.WriteString(fmt.Sprintf("  RSI: %.1f%s | ATR: %s\n", s.RSI, rsiMark(s.RSI), Price(s.ATR, digits)))
		b.WriteString(fmt.Sprintf("  Range: %s ~ %s (%.0f%%)\n", Price(s.RangeLow, digits), Price(s.RangeHigh, digits), s.Position*100))
	}
	return b.String()
}

func rsiMark(rsi float64) string {
	switch {
	case rsi >= 70:
		return " 🔥"
	case rsi <= 30:
		return " 🧊"
	}
	return ""
}

// Price formats v with the instrument's display digits.
func Price(v float64, digits int) string {
	if digits < 0 {
		digits = model.DefaultDisplayDigits
	}
	return decimal.NewFromFloat(v).StringFixed(int32(digits))
}

// StatusEntry describes the stored state of one instrument.
type StatusEntry struct {
	Instrument string
	Latest     time.Time // zero when nothing is stored
	Err        error
}

// FormatStatus formats the per-instrument storage state for display.
func FormatStatus(entries []StatusEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString("📦 <b>Status</b>\n\n")
	for _, e := range entries {
		switch {
		case e.Err != nil:
			b.WriteString(fmt.Sprintf("❌ %s: %v\n", e.Instrument, e.Err))
		case e.Latest.IsZero():
			b.WriteString(fmt.Sprintf("⚪ %s: no bars stored\n", e.Instrument))
		default:
			b.WriteString(fmt.Sprintf("✅ %s: last bar %s (%s ago)\n", e.Instrument,
				e.Latest.UTC().Format("2006-01-02 15:04"), now.Sub(e.Latest).Truncate(time.Second)))
		}
	}
	return b.String()
}

// HelpText lists the bot commands.
func HelpText() string {
	return "🤖 <b>BarSentinel commands</b>\n\n" +
		"/report - indicator snapshot of every instrument\n" +
		"/status - last stored bar per instrument\n" +
		"/help - this message\n"
}
