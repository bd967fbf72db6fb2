package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatIndonesianDate fecha larga en indonesio: "2 Januari 2026".
func FormatIndonesianDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), idMonths[t.Month()-1], t.Year())
}

// ReminderMessage texto del recordatorio de préstamo vencido (en indonesio, idioma de los prestatarios).
func ReminderMessage(l *entity.Loan, productName string) string {
	return strings.Join([]string{
		"⚠️ *Pengingat Peminjaman Barang*",
		"",
		fmt.Sprintf("Halo *%s*,", l.BorrowerName),
		"",
		"Kami ingin mengingatkan bahwa peminjaman barang berikut sudah melewati batas waktu:",
		"",
		fmt.Sprintf("📦 Barang: *%s*", productName),
		idPrinter.Sprintf("🔢 Jumlah: *%d*", l.Qty),
		fmt.Sprintf("📅 Jatuh Tempo: *%s*", FormatIndonesianDate(l.DueDate)),
		fmt.Sprintf("🔖 Kode: *%s*", l.TransactionCode),
		"",
		"Mohon segera mengembalikan barang tersebut.",
		"Terima kasih.",
		"",
		"— _StockFlow_",
	}, "\n")
}
