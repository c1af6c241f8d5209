package ai

import (
	"context"
	"fmt"
	"time"

	"go-pos-server/internal/database"
	"go-pos-server/internal/errs"
	"go-pos-server/internal/inventory"
	"go-pos-server/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
)

// Catalog is the slice of the inventory ledger the assistant may touch.
type Catalog interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch inventory.ProductPatch, image *inventory.Upload) (*models.Product, error)
}

// SalesReporter answers revenue questions for a day range.
type SalesReporter interface {
	Range(ctx context.Context, from, to time.Time) (*database.SalesReportResult, error)
}

// Toolbox executes the function calls the model asks for.
type Toolbox struct {
	catalog Catalog
	reports SalesReporter
}

func NewToolbox(catalog Catalog, reports SalesReporter) *Toolbox {
	return &Toolbox{catalog: catalog, reports: reports}
}

// Tool names
const (
	ToolCheckInventory = "check_inventory"
	ToolUpdatePrice    = "update_product_price"
	ToolRestock        = "restock_product"
	ToolSalesReport    = "get_sales_report"
)

// Declarations describes the toolbox to Gemini.
func Declarations() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        ToolCheckInventory,
				Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, Price, Stock, Category or whether it is archived.",
			},
			{
				Name:        ToolUpdatePrice,
				Description: "Update the selling price of a specific product using its ID",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id": {Type: genai.TypeString, Description: "ID of the product"},
						"new_price":  {Type: genai.TypeNumber, Description: "New price"},
					},
					Required: []string{"product_id", "new_price"},
				},
			},
			{
				Name:        ToolRestock,
				Description: "Add units to a product's stock using its ID. A product with stock is not automatically restored from the archive.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id": {Type: genai.TypeString, Description: "ID of the product"},
						"quantity":   {Type: genai.TypeInteger, Description: "Units to add"},
					},
					Required: []string{"product_id", "quantity"},
				},
			},
			{
				Name:        ToolSalesReport,
				Description: "Get total sales revenue and number of sales for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
		},
	}}
}

type inventoryRow struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Barcode  string          `json:"barcode"`
	Stock    int             `json:"stock"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
	Archived bool            `json:"archived"`
}

// Call runs one tool. Bad arguments and rule violations come back as an
// "error" entry so the model can explain them; only store failures are
// returned as errors.
func (tb *Toolbox) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	res, err := tb.call(ctx, name, args)
	if err == nil {
		return res, nil
	}
	if errs.IsUserFacing(err) {
		return map[string]any{"error": err.Error()}, nil
	}
	return nil, err
}

func (tb *Toolbox) call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case ToolCheckInventory:
		products, err := tb.catalog.ListProducts(ctx, false)
		if err != nil {
			return nil, err
		}
		rows := make([]inventoryRow, 0, len(products))
		for _, p := range products {
			row := inventoryRow{
				ID: p.ID, Name: p.Name, Barcode: p.Barcode,
				Stock: p.Stock, Price: p.Price, Archived: !p.IsActive,
			}
			if p.PrimaryCategory != nil {
				row.Category = *p.PrimaryCategory
			}
			rows = append(rows, row)
		}
		return map[string]any{"inventory": rows}, nil

	case ToolUpdatePrice:
		id, err := stringArg(args, "product_id")
		if err != nil {
			return nil, err
		}
		price, err := numberArg(args, "new_price")
		if err != nil {
			return nil, err
		}
		p, err := tb.catalog.UpdateProduct(ctx, id, inventory.ProductPatch{Price: &price}, nil)
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "updated", "name": p.Name, "new_price": p.Price.StringFixed(2)}, nil

	case ToolRestock:
		id, err := stringArg(args, "product_id")
		if err != nil {
			return nil, err
		}
		qty, err := numberArg(args, "quantity")
		if err != nil {
			return nil, err
		}
		if !qty.IsInteger() || !qty.IsPositive() {
			return nil, errs.Reason(errs.ErrValidation, "quantity must be a positive whole number")
		}
		current, err := tb.catalog.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		stock := current.Stock + int(qty.IntPart())
		p, err := tb.catalog.UpdateProduct(ctx, id, inventory.ProductPatch{Stock: &stock}, nil)
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "restocked", "name": p.Name, "stock": p.Stock, "archived": !p.IsActive}, nil

	case ToolSalesReport:
		from, err := dateArg(args, "start_date")
		if err != nil {
			return nil, err
		}
		to, err := dateArg(args, "end_date")
		if err != nil {
			return nil, err
		}
		r, err := tb.reports.Range(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return map[string]any{"revenue": r.TotalRevenue.StringFixed(2), "sales_count": r.TotalCount}, nil
	}
	return nil, errs.Reason(errs.ErrValidation, "unknown tool %q", name)
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", errs.Reason(errs.ErrValidation, "%s is required", key)
	}
	return v, nil
}

func numberArg(args map[string]any, key string) (decimal.Decimal, error) {
	switch v := args[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d, nil
		}
	}
	return decimal.Zero, errs.Reason(errs.ErrValidation, "%s must be a number", key)
}

func dateArg(args map[string]any, key string) (time.Time, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, errs.Reason(errs.ErrValidation, "%s must be in YYYY-MM-DD format", key)
	}
	return t, nil
}

func describe(name string, args map[string]any) string {
	return fmt.Sprintf("%s(%v)", name, args)
}
