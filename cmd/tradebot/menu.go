package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"trading_bot/internal/audit"
	"trading_bot/internal/bot"
	"trading_bot/internal/config"
	"trading_bot/internal/core"

	"github.com/shopspring/decimal"
)

// menu is the interactive shell around the trading facade
type menu struct {
	bot    *bot.TradingBot
	cfg    *config.Config
	logger core.ILogger
	store  *audit.SQLiteStore // nil when the audit database is unavailable
	in     *bufio.Scanner
}

func newMenu(trader *bot.TradingBot, cfg *config.Config, logger core.ILogger, store *audit.SQLiteStore) *menu {
	return &menu{
		bot:    trader,
		cfg:    cfg,
		logger: logger,
		store:  store,
		in:     bufio.NewScanner(os.Stdin),
	}
}

func (m *menu) run(ctx context.Context) {
	m.printHeader()

	for {
		m.printMenu()
		choice := m.readLine("Select an option")

		switch choice {
		case "1":
			m.viewBalance(ctx)
		case "2":
			m.viewPrice(ctx)
		case "3":
			m.placeOrder(ctx, core.OrderTypeMarket)
		case "4":
			m.placeOrder(ctx, core.OrderTypeLimit)
		case "5":
			m.placeOrder(ctx, core.OrderTypeStop)
		case "6":
			m.placeOrder(ctx, core.OrderTypeStopMarket)
		case "7":
			m.placeOrder(ctx, core.OrderTypeTakeProfit)
		case "8":
			m.viewOpenOrders(ctx)
		case "9":
			m.cancelOrder(ctx)
		case "10":
			m.cancelAllOrders(ctx)
		case "11":
			m.viewPositions(ctx)
		case "12":
			m.setLeverage(ctx)
		case "13":
			m.orderStatus(ctx)
		case "14":
			m.viewAuditTrail(ctx)
		case "0", "q", "exit":
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func (m *menu) printHeader() {
	mode := "LIVE"
	if m.cfg.Exchange.Testnet || m.cfg.App.Exchange == "mock" {
		mode = "TESTNET - no real funds at risk"
	}
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("   FUTURES TRADING BOT")
	fmt.Printf("   mode: %s\n", mode)
	fmt.Println(strings.Repeat("=", 60))
}

func (m *menu) printMenu() {
	fmt.Println()
	fmt.Println(strings.Repeat("-", 40))
	fmt.Println("1.  View Account Balance")
	fmt.Println("2.  View Current Price")
	fmt.Println("3.  Place Market Order")
	fmt.Println("4.  Place Limit Order")
	fmt.Println("5.  Place Stop-Limit Order")
	fmt.Println("6.  Place Stop-Market Order")
	fmt.Println("7.  Place Take-Profit Order")
	fmt.Println("8.  View Open Orders")
	fmt.Println("9.  Cancel Order")
	fmt.Println("10. Cancel All Orders")
	fmt.Println("11. View Positions")
	fmt.Println("12. Set Leverage")
	fmt.Println("13. Get Order Status")
	fmt.Println("14. View Audit Trail")
	fmt.Println("0.  Exit")
	fmt.Println(strings.Repeat("-", 40))
}

func (m *menu) readLine(prompt string) string {
	fmt.Printf("%s: ", prompt)
	if !m.in.Scan() {
		return "0" // EOF exits
	}
	return strings.TrimSpace(m.in.Text())
}

func (m *menu) readWithDefault(prompt, def string) string {
	value := m.readLine(fmt.Sprintf("%s [%s]", prompt, def))
	if value == "" {
		return def
	}
	return value
}

func (m *menu) readDecimal(prompt string) decimal.Decimal {
	for {
		value, err := decimal.NewFromString(m.readLine(prompt))
		if err == nil {
			return value
		}
		fmt.Println("Please enter a valid number.")
	}
}

func (m *menu) readOptionalDecimal(prompt string) decimal.Decimal {
	for {
		raw := m.readLine(prompt + " (blank to skip)")
		if raw == "" {
			return decimal.Zero
		}
		value, err := decimal.NewFromString(raw)
		if err == nil {
			return value
		}
		fmt.Println("Please enter a valid number.")
	}
}

func (m *menu) readSide() core.OrderSide {
	for {
		side := strings.ToUpper(m.readLine("Order Side (BUY/SELL)"))
		switch side {
		case "BUY":
			return core.SideBuy
		case "SELL":
			return core.SideSell
		}
		fmt.Println("Please enter BUY or SELL.")
	}
}

func (m *menu) confirm(prompt string) bool {
	value := strings.ToLower(m.readLine(prompt + " (y/N)"))
	return value == "y" || value == "yes"
}

func (m *menu) viewBalance(ctx context.Context) {
	asset := m.readWithDefault("Asset", m.cfg.Trading.MarginAsset)
	overview, err := m.bot.GetAccountOverview(ctx, asset, "")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("\nACCOUNT BALANCE")
	fmt.Printf("  Asset:          %s\n", overview.Balance.Asset)
	fmt.Printf("  Total Balance:  %s\n", overview.Balance.Balance.StringFixed(4))
	fmt.Printf("  Available:      %s\n", overview.Balance.Available.StringFixed(4))
	fmt.Printf("  Open Positions: %d\n", len(overview.Positions))
}

func (m *menu) viewPrice(ctx context.Context) {
	symbol := strings.ToUpper(m.readWithDefault("Symbol", m.cfg.Trading.Symbol))
	price, err := m.bot.GetCurrentPrice(ctx, symbol)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("\nCurrent %s price: %s\n", symbol, price.String())
}

func (m *menu) placeOrder(ctx context.Context, orderType core.OrderType) {
	fmt.Printf("\n--- %s ORDER ---\n", orderType)
	symbol := strings.ToUpper(m.readWithDefault("Symbol", m.cfg.Trading.Symbol))

	if price, err := m.bot.GetCurrentPrice(ctx, symbol); err == nil {
		fmt.Printf("Current %s price: %s\n", symbol, price.String())
	}

	intent := core.OrderIntent{
		Symbol:   symbol,
		Type:     orderType,
		Side:     m.readSide(),
		Quantity: m.readDecimal("Quantity"),
	}

	switch orderType {
	case core.OrderTypeLimit:
		intent.Price = m.readDecimal("Limit Price")
		intent.TimeInForce = core.TimeInForce(strings.ToUpper(m.readWithDefault("Time in Force (GTC/IOC/FOK)", "GTC")))
	case core.OrderTypeStop:
		intent.StopPrice = m.readDecimal("Stop (trigger) Price")
		intent.Price = m.readDecimal("Limit Price")
	case core.OrderTypeStopMarket:
		intent.StopPrice = m.readDecimal("Stop (trigger) Price")
	case core.OrderTypeTakeProfit:
		intent.StopPrice = m.readDecimal("Take-Profit (trigger) Price")
		intent.Price = m.readOptionalDecimal("Limit Price")
	}
	intent.ReduceOnly = m.confirm("Reduce Only?")

	fmt.Printf("\nOrder summary: %s %s %s %s\n", intent.Side, intent.Quantity.String(), symbol, orderType)
	if !m.confirm("Confirm order?") {
		fmt.Println("Order cancelled.")
		return
	}

	result, err := m.bot.PlaceOrder(ctx, intent)
	if err != nil {
		fmt.Printf("Order failed: %v\n", err)
		return
	}
	m.displayOrder(result)
}

func (m *menu) displayOrder(o *core.OrderResult) {
	fmt.Println("\nORDER EXECUTED")
	fmt.Printf("  Order ID:      %d\n", o.OrderID)
	fmt.Printf("  Symbol:        %s\n", o.Symbol)
	fmt.Printf("  Side:          %s\n", o.Side)
	fmt.Printf("  Type:          %s\n", o.Type)
	fmt.Printf("  Status:        %s\n", o.Status)
	fmt.Printf("  Quantity:      %s\n", o.OrigQuantity.String())
	fmt.Printf("  Executed Qty:  %s\n", o.ExecutedQty.String())
	if !o.Price.IsZero() {
		fmt.Printf("  Price:         %s\n", o.Price.String())
	}
	if !o.AvgPrice.IsZero() {
		fmt.Printf("  Avg Price:     %s\n", o.AvgPrice.String())
	}
	if !o.StopPrice.IsZero() {
		fmt.Printf("  Stop Price:    %s\n", o.StopPrice.String())
	}
}

func (m *menu) viewOpenOrders(ctx context.Context) {
	symbol := strings.ToUpper(m.readWithDefault("Symbol", m.cfg.Trading.Symbol))
	orders, err := m.bot.GetOpenOrders(ctx, symbol)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("No open orders.")
		return
	}
	for _, o := range orders {
		fmt.Printf("\n  Order ID: %d  %s %s %s  qty=%s price=%s status=%s\n",
			o.OrderID, o.Symbol, o.Side, o.Type,
			o.OrigQuantity.String(), o.Price.String(), o.Status)
	}
}

func (m *menu) cancelOrder(ctx context.Context) {
	symbol := strings.ToUpper(m.readWithDefault("Symbol", m.cfg.Trading.Symbol))
	orderID, err := strconv.ParseInt(m.readLine("Order ID"), 10, 64)
	if err != nil {
		fmt.Println("Please enter a valid order ID.")
		return
	}

	result, err := m.bot.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		fmt.Printf("Cancel failed: %v\n", err)
		return
	}
	fmt.Printf("Order %d cancelled (status: %s)\n", result.OrderID, result.Status)
}

func (m *menu) cancelAllOrders(ctx context.Context) {
	symbol := strings.ToUpper(m.readWithDefault("Symbol", m.cfg.Trading.Symbol))
	if !m.confirm(fmt.Sprintf("Cancel ALL open orders on %s?", symbol)) {
		return
	}
	if err := m.bot.CancelAllOrders(ctx, symbol); err != nil {
		fmt.Printf("Cancel failed: %v\n", err)
		return
	}
	fmt.Println("All open orders cancelled.")
}

func (m *menu) viewPositions(ctx context.Context) {
	symbol := strings.ToUpper(m.readWithDefault("Symbol (blank for all)", ""))
	positions, err := m.bot.GetPositions(ctx, symbol)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(positions) == 0 {
		fmt.Println("No active positions.")
		return
	}
	for _, p := range positions {
		fmt.Printf("\n  Symbol:          %s\n", p.Symbol)
		fmt.Printf("  Position:        %s\n", p.Size.String())
		fmt.Printf("  Entry Price:     %s\n", p.EntryPrice.String())
		fmt.Printf("  Mark Price:      %s\n", p.MarkPrice.String())
		fmt.Printf("  Unrealized PnL:  %s\n", p.UnrealizedPnL.String())
		fmt.Printf("  Liquidation:     %s\n", p.LiquidationPrice.String())
		fmt.Printf("  Leverage:        %dx\n", p.Leverage)
	}
}

func (m *menu) setLeverage(ctx context.Context) {
	symbol := strings.ToUpper(m.readWithDefault("Symbol", m.cfg.Trading.Symbol))
	leverage, err := strconv.Atoi(m.readLine("Leverage (1-125)"))
	if err != nil {
		fmt.Println("Please enter a valid integer.")
		return
	}
	if err := m.bot.SetLeverage(ctx, symbol, leverage); err != nil {
		fmt.Printf("Failed: %v\n", err)
		return
	}
	fmt.Printf("Leverage for %s set to %dx\n", symbol, leverage)
}

func (m *menu) orderStatus(ctx context.Context) {
	symbol := strings.ToUpper(m.readWithDefault("Symbol", m.cfg.Trading.Symbol))
	orderID, err := strconv.ParseInt(m.readLine("Order ID"), 10, 64)
	if err != nil {
		fmt.Println("Please enter a valid order ID.")
		return
	}
	result, err := m.bot.GetOrderStatus(ctx, symbol, orderID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	m.displayOrder(result)
}

func (m *menu) viewAuditTrail(ctx context.Context) {
	if m.store == nil {
		fmt.Println("Audit database is not available.")
		return
	}
	symbol := strings.ToUpper(m.readWithDefault("Symbol (blank for all)", ""))
	events, err := m.store.Recent(ctx, symbol, 20)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(events) == 0 {
		fmt.Println("No audit events recorded.")
		return
	}
	for _, ev := range events {
		line := fmt.Sprintf("  %s  %-18s %-10s %s",
			ev.Time.Format("2006-01-02 15:04:05"), ev.Operation, ev.Outcome, ev.Symbol)
		if ev.ErrorKind != "" {
			line += "  " + ev.ErrorKind
		}
		fmt.Println(line)
	}
}
