package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// MaxSheetNameLength is the spreadsheet format's limit on sheet names.
const MaxSheetNameLength = 31

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var itemHeadings = []any{"Item Number", "Product", "Size", "Quantity", "Category"}

// Filename returns the download name for a cart's workbook.
func Filename(cartID uuid.UUID) string {
	return fmt.Sprintf("order-%s.xlsx", cartID)
}

// Included reports whether an item belongs in the export.
func Included(item model.CartItemDetail) bool {
	return item.Status != model.ItemStatusDenied && item.ResolvedQuantity() > 0
}

// SheetName strips characters the format forbids and truncates to the
// length limit. An empty result becomes "Sheet".
func SheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		}
		return r
	}, name)
	cleaned = strings.Trim(strings.TrimSpace(cleaned), "'")

	if utf8.RuneCountInString(cleaned) > MaxSheetNameLength {
		cleaned = string([]rune(cleaned)[:MaxSheetNameLength])
	}
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "Sheet"
	}
	return cleaned
}

// sheetNamer hands out unique sheet names. Names compare case-insensitively.
type sheetNamer struct {
	used map[string]bool
}

func (n *sheetNamer) next(name string) string {
	base := SheetName(name)
	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := " " + strconv.Itoa(i)
		runes := []rune(base)
		if len(runes)+len(suffix) > MaxSheetNameLength {
			runes = runes[:MaxSheetNameLength-len(suffix)]
		}
		candidate = strings.TrimSpace(string(runes)) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

// SupplierGroup is the exported items of one supplier.
type SupplierGroup struct {
	Supplier string
	Sheet    string
	Items    []model.CartItemDetail
}

// Group drops excluded items and groups the rest by supplier, sorted by
// supplier name and then product name.
func Group(items []model.CartItemDetail) []SupplierGroup {
	bySupplier := map[string][]model.CartItemDetail{}
	for _, item := range items {
		if !Included(item) {
			continue
		}
		bySupplier[item.Product.Supplier] = append(bySupplier[item.Product.Supplier], item)
	}

	suppliers := make([]string, 0, len(bySupplier))
	for s := range bySupplier {
		suppliers = append(suppliers, s)
	}
	sort.Strings(suppliers)

	groups := make([]SupplierGroup, 0, len(suppliers))
	for _, s := range suppliers {
		items := bySupplier[s]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Product.Name != items[j].Product.Name {
				return items[i].Product.Name < items[j].Product.Name
			}
			return items[i].ProductID < items[j].ProductID
		})
		groups = append(groups, SupplierGroup{Supplier: s, Items: items})
	}

	return groups
}

// SummarySheetName names the summary sheet after the cart.
func SummarySheetName(cart *model.Cart) string {
	name := cart.ClinicName
	if cart.SubmittedAt != nil {
		name += " " + cart.SubmittedAt.Format("2006-01-02")
	}
	return SheetName(name)
}

// Build renders an approved cart as a workbook: a summary sheet followed
// by one sheet per supplier.
func Build(view *model.CartView) (*excelize.File, error) {
	if view == nil || view.Cart == nil {
		return nil, fmt.Errorf("cart is required")
	}
	if view.Cart.Status != model.CartStatusApproved {
		return nil, model.ErrCartNotApproved
	}

	f := excelize.NewFile()

	namer := &sheetNamer{used: map[string]bool{}}
	summary := namer.next(SummarySheetName(view.Cart))
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}

	groups := Group(view.Items)
	for i := range groups {
		groups[i].Sheet = namer.next(groups[i].Supplier)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, summary, view.Cart, groups, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}

	for _, g := range groups {
		if err := writeSupplier(f, g, headerStyle); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)

	return f, nil
}

// Write renders the workbook straight to w.
func Write(w io.Writer, view *model.CartView) error {
	f, err := Build(view)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, sheet string, cart *model.Cart, groups []SupplierGroup, headerStyle int) error {
	submitted := ""
	if cart.SubmittedAt != nil {
		submitted = cart.SubmittedAt.UTC().Format("2006-01-02 15:04 MST")
	}

	rows := [][]any{
		{"Cart ID", cart.ID.String()},
		{"Clinic", cart.ClinicName},
		{"Submitted", submitted},
		{"Requested By", cart.UserID},
		{},
		{"Supplier", "Items"},
	}
	for _, g := range groups {
		rows = append(rows, []any{g.Supplier, len(g.Items)})
	}

	if err := setRows(f, sheet, rows); err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, "A1", "A4", headerStyle); err != nil {
		return fmt.Errorf("failed to style summary sheet: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A6", "B6", headerStyle); err != nil {
		return fmt.Errorf("failed to style summary sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}

	return nil
}

func writeSupplier(f *excelize.File, g SupplierGroup, headerStyle int) error {
	if _, err := f.NewSheet(g.Sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", g.Sheet, err)
	}

	rows := [][]any{itemHeadings}
	for _, item := range g.Items {
		rows = append(rows, []any{
			item.Product.ItemNumber,
			item.Product.Name,
			item.Product.Size,
			item.ResolvedQuantity(),
			item.Product.Category,
		})
	}

	if err := setRows(f, g.Sheet, rows); err != nil {
		return err
	}

	if err := f.SetCellStyle(g.Sheet, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("failed to style sheet %q: %w", g.Sheet, err)
	}
	if err := f.SetColWidth(g.Sheet, "B", "B", 40); err != nil {
		return fmt.Errorf("failed to size sheet %q: %w", g.Sheet, err)
	}

	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+1, sheet, err)
		}
	}
	return nil
}
