package document

// Format names the kind of input a Document came from.
type Format string

const (
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
)

// Document is input text ready to be scanned for addresses.
type Document struct {
	Title  string // From metadata or filename
	Format Format
	Text   string // Text the scan and rewrite run on

	// Extracted is true when Text was derived from the file (rendered or
	// pulled out of a binary format) rather than being its raw bytes. The
	// rewritten text then replaces the derived text, not the file.
	Extracted bool
}
