package ai

import (
	"context"
	"testing"
	"time"

	"go-pos-server/internal/database/dbtest"
	"go-pos-server/internal/inventory"
	"go-pos-server/internal/models"
	"go-pos-server/internal/reports"
	"go-pos-server/internal/sales"
	"go-pos-server/internal/storage"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newToolbox(t *testing.T) (*Toolbox, *inventory.Ledger) {
	t.Helper()
	db := dbtest.Open(t)
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	ledger := inventory.NewLedger(db, files, zap.NewNop())
	return NewToolbox(ledger, reports.NewService(db, sales.NewService(db))), ledger
}

func newProduct(t *testing.T, l *inventory.Ledger, name string, stock int) *models.Product {
	t.Helper()
	p, err := l.CreateProduct(context.Background(), inventory.ProductInput{
		Name: name, Barcode: name, Price: decimal.NewFromInt(10), Stock: stock,
	}, nil)
	require.NoError(t, err)
	return p
}

func TestCheckInventory(t *testing.T) {
	tb, l := newToolbox(t)
	newProduct(t, l, "Banana", 5)
	newProduct(t, l, "Apple", 0)

	out, err := tb.Call(context.Background(), ToolCheckInventory, nil)
	require.NoError(t, err)
	rows, ok := out["inventory"].([]inventoryRow)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "Apple", rows[0].Name)
	assert.True(t, rows[0].Archived)
}

func TestUpdatePrice(t *testing.T) {
	tb, l := newToolbox(t)
	p := newProduct(t, l, "Banana", 5)
	ctx := context.Background()

	out, err := tb.Call(ctx, ToolUpdatePrice, map[string]any{"product_id": p.ID, "new_price": 12.5})
	require.NoError(t, err)
	assert.Equal(t, "12.50", out["new_price"])

	got, err := l.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.Price))

	out, err = tb.Call(ctx, ToolUpdatePrice, map[string]any{"product_id": "missing", "new_price": 1.0})
	require.NoError(t, err)
	assert.Equal(t, "Product not found", out["error"])

	out, err = tb.Call(ctx, ToolUpdatePrice, map[string]any{"product_id": p.ID, "new_price": -3.0})
	require.NoError(t, err)
	assert.Contains(t, out, "error")
}

func TestRestock(t *testing.T) {
	tb, l := newToolbox(t)
	p := newProduct(t, l, "Banana", 0)
	ctx := context.Background()

	out, err := tb.Call(ctx, ToolRestock, map[string]any{"product_id": p.ID, "quantity": 7.0})
	require.NoError(t, err)
	assert.Equal(t, 7, out["stock"])
	assert.Equal(t, true, out["archived"], "restocking does not restore")

	out, err = tb.Call(ctx, ToolRestock, map[string]any{"product_id": p.ID, "quantity": 1.5})
	require.NoError(t, err)
	assert.Contains(t, out, "error")
}

func TestSalesReport(t *testing.T) {
	tb, l := newToolbox(t)
	p := newProduct(t, l, "Banana", 5)
	ctx := context.Background()
	_, err := l.ApplySale(ctx, inventory.Cashier{ID: "c", Name: "alice"}, inventory.Checkout{
		Items: []inventory.CheckoutItem{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	today := time.Now().Format(time.DateOnly)
	out, err := tb.Call(ctx, ToolSalesReport, map[string]any{"start_date": today, "end_date": today})
	require.NoError(t, err)
	assert.Equal(t, "20.00", out["revenue"])
	assert.EqualValues(t, 1, out["sales_count"])

	out, err = tb.Call(ctx, ToolSalesReport, map[string]any{"start_date": "yesterday", "end_date": today})
	require.NoError(t, err)
	assert.Contains(t, out, "error")
}

func TestUnknownTool(t *testing.T) {
	tb, _ := newToolbox(t)
	out, err := tb.Call(context.Background(), "drop_tables", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "error")
}

func TestSplit(t *testing.T) {
	_, _, err := split(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoAnswer)

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{
			genai.FunctionCall{Name: ToolCheckInventory},
			genai.Text("looking that up"),
		}},
	}}}
	calls, text, err := split(resp)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, ToolCheckInventory, calls[0].Name)
	assert.Equal(t, "looking that up", text)
}
