package libadmin

import (
	"strconv"
	"strings"
)

// Identifiable is implemented by every entity served by a collection.
type Identifiable interface {
	EntityID() string
}

// Labeled is implemented by entities offered as lookup options.
type Labeled interface {
	Label() string
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}

	return strconv.FormatInt(id, 10)
}

func joinLabel(parts ...string) string {
	kept := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, " - ")
}

// Book is a catalogue entry.
type Book struct {
	ID          int64  `json:"id,omitempty"          yaml:"id,omitempty"`
	Code        string `json:"code"                  yaml:"code"`
	Title       string `json:"title,omitempty"       yaml:"title,omitempty"`
	Name        string `json:"name,omitempty"        yaml:"name,omitempty"`
	Author      string `json:"author,omitempty"      yaml:"author,omitempty"`
	Category    string `json:"category,omitempty"    yaml:"category,omitempty"`
	PublisherID int64  `json:"publisherId,omitempty" yaml:"publisher_id,omitempty"`
	Quantity    int    `json:"quantity,omitempty"    yaml:"quantity,omitempty"`
}

// EntityID implements Identifiable.
func (b Book) EntityID() string { return formatID(b.ID) }

// DisplayTitle returns the title, falling back to the legacy name field.
func (b Book) DisplayTitle() string {
	if b.Title != "" {
		return b.Title
	}

	return b.Name
}

// Label implements Labeled.
func (b Book) Label() string { return joinLabel(b.Code, b.DisplayTitle()) }

// Author is a book author.
type Author struct {
	ID          int64  `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string `json:"name"                  yaml:"name"`
	Nationality string `json:"nationality,omitempty" yaml:"nationality,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// EntityID implements Identifiable.
func (a Author) EntityID() string { return formatID(a.ID) }

// Label implements Labeled.
func (a Author) Label() string { return a.Name }

// Student is a library member.
type Student struct {
	ID          int64  `json:"id,omitempty"          yaml:"id,omitempty"`
	Code        string `json:"code,omitempty"        yaml:"code,omitempty"`
	StudentCode string `json:"studentCode,omitempty" yaml:"student_code,omitempty"`
	Name        string `json:"name,omitempty"        yaml:"name,omitempty"`
	FullName    string `json:"fullName,omitempty"    yaml:"full_name,omitempty"`
	Faculty     string `json:"faculty,omitempty"     yaml:"faculty,omitempty"`
	Class       string `json:"class,omitempty"       yaml:"class,omitempty"`
	Status      string `json:"status,omitempty"      yaml:"status,omitempty"`
}

// EntityID implements Identifiable.
func (s Student) EntityID() string { return formatID(s.ID) }

// Label implements Labeled.
func (s Student) Label() string {
	code := s.StudentCode
	if code == "" {
		code = s.Code
	}

	name := s.FullName
	if name == "" {
		name = s.Name
	}

	return joinLabel(code, name)
}

// Category groups books.
type Category struct {
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Code string `json:"code"         yaml:"code"`
	Name string `json:"name"         yaml:"name"`
}

// EntityID implements Identifiable.
func (c Category) EntityID() string { return formatID(c.ID) }

// Label implements Labeled.
func (c Category) Label() string { return joinLabel(c.Code, c.Name) }

// Publisher publishes books.
type Publisher struct {
	ID          int64  `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// EntityID implements Identifiable.
func (p Publisher) EntityID() string { return formatID(p.ID) }

// Label implements Labeled.
func (p Publisher) Label() string { return p.Name }

// LoanStatus is the lifecycle state of a loan. Transitions are decided by the backend.
type LoanStatus string

// Loan statuses reported by the backend.
const (
	LoanBorrowed LoanStatus = "BORROWED"
	LoanReturned LoanStatus = "RETURNED"
	LoanLate     LoanStatus = "LATE"
)

// BookLoan records a book lent to a student. Dates use the YYYY-MM-DD layout.
type BookLoan struct {
	ID          int64      `json:"id,omitempty"          yaml:"id,omitempty"`
	StudentID   int64      `json:"studentId"             yaml:"student_id"`
	BookID      int64      `json:"bookId"                yaml:"book_id"`
	StudentName string     `json:"studentName,omitempty" yaml:"student_name,omitempty"`
	BookTitle   string     `json:"bookTitle,omitempty"   yaml:"book_title,omitempty"`
	BorrowDate  string     `json:"borrowDate,omitempty"  yaml:"borrow_date,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"     yaml:"due_date,omitempty"`
	ReturnDate  string     `json:"returnDate,omitempty"  yaml:"return_date,omitempty"`
	Fee         float64    `json:"fee"                   yaml:"fee"`
	Status      LoanStatus `json:"status,omitempty"      yaml:"status,omitempty"`
}

// EntityID implements Identifiable.
func (l BookLoan) EntityID() string { return formatID(l.ID) }

// AdminInfo describes the signed in account.
type AdminInfo struct {
	Username string `json:"username"           yaml:"username"`
	FullName string `json:"fullName,omitempty" yaml:"full_name,omitempty"`
	Email    string `json:"email,omitempty"    yaml:"email,omitempty"`
	Role     Role   `json:"role"               yaml:"role"`
}

// DailySummary aggregates loan activity for one day.
type DailySummary struct {
	ReportDate       string  `json:"reportDate"       yaml:"report_date"`
	TotalBorrowed    int     `json:"totalBorrowed"    yaml:"total_borrowed"`
	TotalOverdue     int     `json:"totalOverdue"     yaml:"total_overdue"`
	TotalReturned    int     `json:"totalReturned"    yaml:"total_returned"`
	TotalFeeEstimate float64 `json:"totalFeeEstimate" yaml:"total_fee_estimate"`
}

// OverdueEntry is one overdue loan as seen on a report day.
type OverdueEntry struct {
	ReportDate   string  `json:"reportDate"   yaml:"report_date"`
	StudentID    int64   `json:"studentId"    yaml:"student_id"`
	BookID       int64   `json:"bookId"       yaml:"book_id"`
	LoanID       int64   `json:"loanId"       yaml:"loan_id"`
	BorrowDate   string  `json:"borrowDate"   yaml:"borrow_date"`
	DueDate      string  `json:"dueDate"      yaml:"due_date"`
	DaysOverdue  int     `json:"daysOverdue"  yaml:"days_overdue"`
	EstimatedFee float64 `json:"estimatedFee" yaml:"estimated_fee"`
}
