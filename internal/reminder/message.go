package reminder

import (
	"fmt"
	"strings"

	"github.com/ledgerkit/invoicing/internal/models"
)

// BankDetails holds optional bank-transfer information forwarded from
// the trigger request into the email body. It plays no part in the
// escalation decision.
type BankDetails struct {
	BankName      string `json:"bankName,omitempty"`
	AccountHolder string `json:"accountHolder,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	BIC           string `json:"bic,omitempty"`
}

// IsEmpty returns true if no bank details were provided
func (b BankDetails) IsEmpty() bool {
	return b.BankName == "" && b.AccountHolder == "" && b.IBAN == "" && b.BIC == ""
}

// MessageOptions controls message construction for a reminder run
type MessageOptions struct {
	PaymentLinkBase string
	BankDetails     BankDetails
}

// Message is a rendered reminder email
type Message struct {
	Subject  string
	BodyText string
	BodyHTML string
}

var subjectPrefixes = map[models.ReminderLevel]string{
	models.LevelFirst:  "Payment Reminder",
	models.LevelSecond: "2nd Payment Reminder",
	models.LevelThird:  "🚨 URGENT Payment Required",
	models.LevelFinal:  "⚠️ FINAL NOTICE - Immediate Action Required",
}

var urgencyLines = map[models.ReminderLevel]string{
	models.LevelFirst:  "This is a friendly reminder that the following invoice is past due.",
	models.LevelSecond: "This is our second reminder: the following invoice remains unpaid.",
	models.LevelThird:  "URGENT: the following invoice is seriously overdue and requires immediate payment.",
	models.LevelFinal:  "FINAL NOTICE: this is the last reminder before we escalate collection of the invoice below.",
}

// BuildMessage renders the reminder email for one invoice at the given
// escalation level.
func BuildMessage(inv *models.Invoice, level models.ReminderLevel, daysPastDue int, opts MessageOptions) Message {
	subject := fmt.Sprintf("%s - Invoice #%s (%d days overdue)", subjectPrefixes[level], inv.Number, daysPastDue)

	dueDate := ""
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format("2006-01-02")
	}
	amount := fmt.Sprintf("%.2f %s", inv.Totals.Total, inv.Currency)
	paymentLink := ""
	if opts.PaymentLinkBase != "" {
		paymentLink = strings.TrimRight(opts.PaymentLinkBase, "/") + "/pay/" + inv.ID
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\n", clientGreeting(inv))
	fmt.Fprintf(&text, "%s\n\n", urgencyLines[level])
	fmt.Fprintf(&text, "Invoice number: %s\n", inv.Number)
	fmt.Fprintf(&text, "Due date: %s\n", dueDate)
	fmt.Fprintf(&text, "Days overdue: %d\n", daysPastDue)
	fmt.Fprintf(&text, "Amount due: %s\n", amount)
	if paymentLink != "" {
		fmt.Fprintf(&text, "\nPay online: %s\n", paymentLink)
	}
	if !opts.BankDetails.IsEmpty() {
		text.WriteString("\nBank transfer details:\n")
		writeBankLine(&text, "Bank", opts.BankDetails.BankName)
		writeBankLine(&text, "Account holder", opts.BankDetails.AccountHolder)
		writeBankLine(&text, "IBAN", opts.BankDetails.IBAN)
		writeBankLine(&text, "BIC", opts.BankDetails.BIC)
	}
	text.WriteString("\nIf you have already paid, please disregard this message.\n")

	var html strings.Builder
	fmt.Fprintf(&html, "<p>Dear %s,</p>", clientGreeting(inv))
	fmt.Fprintf(&html, "<p>%s</p>", urgencyLines[level])
	html.WriteString("<ul>")
	fmt.Fprintf(&html, "<li>Invoice number: <strong>%s</strong></li>", inv.Number)
	fmt.Fprintf(&html, "<li>Due date: %s</li>", dueDate)
	fmt.Fprintf(&html, "<li>Days overdue: <strong>%d</strong></li>", daysPastDue)
	fmt.Fprintf(&html, "<li>Amount due: <strong>%s</strong></li>", amount)
	html.WriteString("</ul>")
	if paymentLink != "" {
		fmt.Fprintf(&html, `<p><a href="%s">Pay this invoice online</a></p>`, paymentLink)
	}
	if !opts.BankDetails.IsEmpty() {
		html.WriteString("<p>Bank transfer details:</p><ul>")
		writeBankItem(&html, "Bank", opts.BankDetails.BankName)
		writeBankItem(&html, "Account holder", opts.BankDetails.AccountHolder)
		writeBankItem(&html, "IBAN", opts.BankDetails.IBAN)
		writeBankItem(&html, "BIC", opts.BankDetails.BIC)
		html.WriteString("</ul>")
	}
	html.WriteString("<p>If you have already paid, please disregard this message.</p>")

	return Message{
		Subject:  subject,
		BodyText: text.String(),
		BodyHTML: html.String(),
	}
}

func clientGreeting(inv *models.Invoice) string {
	if inv.Client.Name != "" {
		return inv.Client.Name
	}
	return "customer"
}

func writeBankLine(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "  %s: %s\n", label, value)
	}
}

func writeBankItem(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "<li>%s: %s</li>", label, value)
	}
}
