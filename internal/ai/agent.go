// Package ai runs the admin inventory assistant: a Gemini chat whose
// function calls are executed against the catalog and sales reports.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/logging"
	"go-pos-inventory/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	defaultModel  = "gemini-2.0-flash-001"
	maxToolRounds = 5
)

var ErrNoAPIKey = errors.New("assistant is not configured")

// InventoryStore is the slice of the database the assistant may touch.
type InventoryStore interface {
	ListProducts(ctx context.Context, f database.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uint, patch database.ProductPatch, actor checkout.Actor) (*models.Product, error)
	GetSalesReport(ctx context.Context, start, end time.Time) (*database.SalesReportResult, error)
	LowStockThreshold() int
}

type Agent struct {
	store  InventoryStore
	apiKey string
	model  string
	now    func() time.Time
	logger logrus.FieldLogger
}

type Option func(*Agent)

func WithModel(name string) Option {
	return func(a *Agent) { a.model = name }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Agent) { a.logger = logger }
}

func NewAgent(store InventoryStore, apiKey string, opts ...Option) *Agent {
	a := &Agent{
		store:  store,
		apiKey: apiKey,
		model:  defaultModel,
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Enabled() bool { return a.apiKey != "" }

// Ask sends the admin's message and keeps answering tool calls until the
// model replies with text.
func (a *Agent) Ask(ctx context.Context, actor checkout.Actor, userMessage string) (string, error) {
	if !a.Enabled() {
		return "", ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(a.systemPrompt()))
	model.Tools = []*genai.Tool{{FunctionDeclarations: toolDeclarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.callTool(ctx, actor, call.Name, call.Args)
			if err != nil {
				a.logger.WithFields(logrus.Fields{"tool": call.Name, "error": err}).Warn("Assistant tool failed")
				result = map[string]any{"error": err.Error()}
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: result})
		}

		if resp, err = session.SendMessage(ctx, parts...); err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

func (a *Agent) systemPrompt() string {
	today := a.now().Format("2006-01-02")
	return fmt.Sprintf(`Today is %s. You are the inventory assistant of a small shop's point of sale.

RULES:
1. UPDATE: If the user asks to update a product by NAME, do NOT ask for the ID.
   Call 'check_inventory' with the name to find the ID, then 'update_product_price'.
2. READ: For PRICE, COST, STOCK or DETAILS of a product, call 'check_inventory' and answer from its result.
3. STOCK ALERTS: For what is running out or needs reordering, call 'low_stock_report'.
4. SALES: For sales or revenue, call 'get_sales_report'. Dates are YYYY-MM-DD, both inclusive.`, today)
}

func toolDeclarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "check_inventory",
			Description: "Search the inventory. Returns ID, name, barcode, category, price, cost and stock of matching products.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"search": {Type: genai.TypeString, Description: "Optional name, barcode or supplier fragment"},
				},
			},
		},
		{
			Name:        "low_stock_report",
			Description: "List products at or below their low stock threshold.",
		},
		{
			Name:        "update_product_price",
			Description: "Update the sale price of a specific product using its ID",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
					"new_price":  {Type: genai.TypeNumber, Description: "New price"},
				},
				Required: []string{"product_id", "new_price"},
			},
		},
		{
			Name:        "get_sales_report",
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
	}
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				return string(txt)
			}
		}
	}
	return "I completed the action."
}

// toToolProducts is the compact product shape handed to the model.
func toToolProducts(products []models.Product) []map[string]any {
	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, map[string]any{
			"id":       p.ID,
			"name":     p.Name,
			"barcode":  p.Barcode,
			"category": p.Category,
			"price":    p.Price.StringFixed(2),
			"cost":     p.PurchasePrice.StringFixed(2),
			"stock":    p.Stock,
		})
	}
	return out
}
