package router

import (
	"fmt"
	"strconv"
	"strings"

	"canteen-bot/types/chat"
	"canteen-bot/utils"
)

const adminUsage = `Operator commands:
  /additem <name>, <price>[, <section>]
  /updateitem <id>, <price>
  /removeitem <id>
  /orders
  /stats
  /deliver <id>`

// handleAdmin dispatches the operator chat commands. Only chat ids on the
// allowlist may use them; everyone else gets the normal customer flow's
// rejection.
func (r *Router) handleAdmin(ev chat.Event) (*chat.Reply, error) {
	if !r.AdminIDs[ev.CustomerID] {
		return &chat.Reply{Messages: []string{"You are not allowed to run operator commands."}}, nil
	}

	cmd, rest, _ := strings.Cut(strings.TrimSpace(ev.Text), " ")
	cmd = strings.ToLower(strings.TrimPrefix(cmd, "/"))
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "additem":
		return r.adminAddItem(rest)
	case "updateitem":
		return r.adminUpdateItem(rest)
	case "removeitem":
		return r.adminRemoveItem(rest)
	case "orders":
		return r.adminTodayOrders()
	case "stats":
		return r.adminStats()
	case "deliver":
		return r.adminDeliver(ev.CustomerID, rest)
	default:
		return &chat.Reply{Messages: []string{adminUsage}}, nil
	}
}

// adminAddItem handles "/additem Samosa, 15, snacks". The section defaults
// to "general".
func (r *Router) adminAddItem(args string) (*chat.Reply, error) {
	parts := splitArgs(args)
	if len(parts) < 2 {
		return &chat.Reply{Messages: []string{"Usage: /additem <name>, <price>[, <section>]"}}, nil
	}
	price, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || price <= 0 {
		return &chat.Reply{Messages: []string{"Price must be a positive number."}}, nil
	}
	section := "general"
	if len(parts) >= 3 && parts[2] != "" {
		section = parts[2]
	}

	item, created, err := r.Menu.Upsert(parts[0], price, section)
	if err != nil {
		return nil, err
	}
	verb := "Updated"
	if created {
		verb = "Added"
	}
	return &chat.Reply{Messages: []string{
		fmt.Sprintf("%s %s [%d] at %s (%s).", verb, item.Name, item.ID, utils.FormatAmount(item.Price), item.Section),
	}}, nil
}

func (r *Router) adminUpdateItem(args string) (*chat.Reply, error) {
	parts := splitArgs(args)
	if len(parts) != 2 {
		return &chat.Reply{Messages: []string{"Usage: /updateitem <id>, <price>"}}, nil
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return &chat.Reply{Messages: []string{"Item id must be a number."}}, nil
	}
	price, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || price <= 0 {
		return &chat.Reply{Messages: []string{"Price must be a positive number."}}, nil
	}

	item, err := r.Menu.UpdatePrice(uint(id), price)
	if err != nil {
		return &chat.Reply{Messages: []string{fmt.Sprintf("No menu item with id %d.", id)}}, nil
	}
	return &chat.Reply{Messages: []string{
		fmt.Sprintf("%s now costs %s.", item.Name, utils.FormatAmount(item.Price)),
	}}, nil
}

func (r *Router) adminRemoveItem(args string) (*chat.Reply, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return &chat.Reply{Messages: []string{"Usage: /removeitem <id>"}}, nil
	}
	item, err := r.Menu.Remove(uint(id))
	if err != nil {
		return &chat.Reply{Messages: []string{fmt.Sprintf("No menu item with id %d.", id)}}, nil
	}
	return &chat.Reply{Messages: []string{
		fmt.Sprintf("%s is off the menu.", item.Name),
	}}, nil
}

func (r *Router) adminTodayOrders() (*chat.Reply, error) {
	orders, err := r.Orders.TodayOrders()
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return &chat.Reply{Messages: []string{"No orders yet today."}}, nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Orders today: %d\n", len(orders)))
	for _, o := range orders {
		token := "-"
		if o.DailyToken != nil {
			token = strconv.Itoa(*o.DailyToken)
		}
		b.WriteString(fmt.Sprintf("#%d [%s] %s token %s\n",
			o.ID, o.Status.String(), utils.FormatAmount(o.TotalAmount), token))
	}
	return &chat.Reply{Messages: []string{b.String()}}, nil
}

func (r *Router) adminStats() (*chat.Reply, error) {
	stats, err := r.Orders.Statistics()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Successful orders: %d\n", stats.TotalOrders))
	b.WriteString(fmt.Sprintf("Revenue: %s\n", utils.FormatAmount(stats.TotalRevenue)))
	b.WriteString(fmt.Sprintf("Successful today: %d\n", stats.TodayOrders))
	for status, count := range stats.StatusCounts {
		b.WriteString(fmt.Sprintf("  %s: %d\n", status, count))
	}
	return &chat.Reply{Messages: []string{b.String()}}, nil
}

func (r *Router) adminDeliver(operatorID, args string) (*chat.Reply, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return &chat.Reply{Messages: []string{"Usage: /deliver <order id>"}}, nil
	}
	if err := r.Orders.MarkDelivered(uint(id), operatorID); err != nil {
		return &chat.Reply{Messages: []string{
			fmt.Sprintf("Could not deliver order %d: %v", id, err),
		}}, nil
	}
	return &chat.Reply{Messages: []string{fmt.Sprintf("Order #%d handed over.", id)}}, nil
}

// splitArgs splits a comma-separated argument list, trimming each part.
func splitArgs(args string) []string {
	raw := strings.Split(args, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
