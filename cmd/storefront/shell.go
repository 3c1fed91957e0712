package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/streeteats-connect/internal/cart"
	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/angelmondragon/streeteats-connect/internal/orders"
	"github.com/angelmondragon/streeteats-connect/internal/popup"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	"github.com/angelmondragon/streeteats-connect/internal/wizard"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
)

// server is the part of the storefront API the shell calls directly.
type server interface {
	PlaceOrder(ctx context.Context, in types.PlaceOrderRequest, idempotencyKey string) (types.PlaceOrderResponse, error)
	NotificationPopup(ctx context.Context) (string, error)
}

type orderBook interface {
	GetOrders(ctx context.Context) ([]orders.Summary, error)
	GetOrderDetails(ctx context.Context, id string) (orders.Order, error)
	GetProductsByCategory(ctx context.Context, category catalog.Category) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type shell struct {
	in     *bufio.Scanner
	out    io.Writer
	popups *popup.Manager
	search *suppliers.Service
	cart   *cart.Service
	orders orderBook
	server server
	vendor orders.VendorInfo
	logg   *logger.Logger
}

const helpText = `commands:
  search <term>            find suppliers and their products
  category <key>|clear     restrict searches to a category
  region <state>           center searches on a state (regions lists them)
  locate <lat> <lng>       center searches on a position
  results                  show the current search page
  add <s>.<p> [qty]        add product p of supplier s to the cart (qty 1-100)
  add <product id> [qty]   add a cached product by id
  cart                     show the cart
  qty <line> <n>           change a line quantity (0 removes)
  remove <line>            remove a line
  clear                    empty the cart
  count                    refresh the server cart count
  checkout                 place the cart as a local order
  orders | order <id>      list local orders or show one
  catalog <category>       cached products in a category
  place-server             fold the server cart into a server order
  inbox                    show the notification popup
  register                 walk the vendor registration wizard
  quit`

func (s *shell) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "StreetEats Connect. Type help for commands.")
	for {
		fmt.Fprintf(s.out, "[%d] > ", s.cart.DisplayedCount())
		line, ok := s.readLine()
		if !ok {
			return s.in.Err()
		}
		if line == "" {
			continue
		}
		cmd, args := splitCommand(line)
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := s.dispatch(ctx, cmd, args); err != nil && !errors.Is(err, suppliers.ErrStaleSearch) {
			s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"command": cmd, "error": err.Error()}), "command failed")
		}
	}
}

func (s *shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func splitCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	return strings.ToLower(fields[0]), fields[1:]
}

func (s *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "search":
		page, err := s.search.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		s.printPage(page)
	case "results":
		s.printPage(s.search.Page())
	case "category":
		if len(args) == 0 || strings.EqualFold(args[0], "clear") {
			s.search.ClearCategory()
			fmt.Fprintln(s.out, "category cleared")
			return nil
		}
		label, ok := s.search.SelectCategory(args[0])
		if !ok {
			return fmt.Errorf("unknown category %q", args[0])
		}
		fmt.Fprintf(s.out, "category: %s\n", label)
	case "regions":
		fmt.Fprintln(s.out, strings.Join(suppliers.RegionNames(), ", "))
	case "region":
		if s.search.SelectRegion(strings.Join(args, " ")) {
			fmt.Fprintf(s.out, "searching near %s\n", s.search.Location())
		}
	case "locate":
		return s.locate(ctx, args)
	case "add":
		return s.add(ctx, args)
	case "cart":
		s.printCart()
	case "qty":
		return s.setQuantity(ctx, args)
	case "remove":
		return s.remove(ctx, args)
	case "clear":
		return s.clear(ctx)
	case "count":
		n, err := s.cart.RefreshCount(ctx)
		fmt.Fprintf(s.out, "server cart: %d items\n", n)
		return err
	case "checkout":
		return s.checkout(ctx)
	case "orders":
		return s.listOrders(ctx)
	case "order":
		if len(args) != 1 {
			return fmt.Errorf("usage: order <id>")
		}
		return s.showOrder(ctx, args[0])
	case "catalog":
		return s.showCatalog(ctx, args)
	case "place-server":
		return s.placeServerOrder(ctx)
	case "inbox":
		html, err := s.server.NotificationPopup(ctx)
		if err != nil {
			s.popups.Error("", "Could not load notifications.")
			return err
		}
		fmt.Fprintln(s.out, html)
	case "register":
		return s.register()
	default:
		s.popups.Warning("", fmt.Sprintf("Unknown command %q. Type help.", cmd))
	}
	return nil
}

func (s *shell) printPage(page suppliers.Page) {
	switch page.State {
	case suppliers.StateEmpty:
		fmt.Fprintln(s.out, "Search for suppliers to get started.")
		return
	case suppliers.StateNoResults:
		fmt.Fprintf(s.out, "%s for %q\n", page.Summary, page.Term)
		return
	}
	fmt.Fprintf(s.out, "%s (%s)\n", page.Title, page.Summary)
	for i, sup := range page.Suppliers {
		fmt.Fprintf(s.out, "%d. %s [%s] %.1f★ %s\n", i+1, sup.Name, sup.SupplierType, sup.Rating, sup.Address)
		for j, p := range sup.Products {
			stock := ""
			if !p.InStock {
				stock = " (out of stock)"
			}
			fmt.Fprintf(s.out, "   %d.%d %s ₹%s/%s min %d%s\n", i+1, j+1, p.Name, p.Price.StringFixed(2), p.Unit, p.MinOrder, stock)
		}
	}
}

func (s *shell) locate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: locate <lat> <lng>")
	}
	lat, errLat := strconv.ParseFloat(args[0], 64)
	lng, errLng := strconv.ParseFloat(args[1], 64)
	fix := suppliers.Fix{Latitude: lat, Longitude: lng}
	if errLat != nil || errLng != nil {
		fix.Err = suppliers.GeoPositionUnavailable
	}
	label, err := s.search.UseLocation(ctx, fix)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "searching near %s\n", label)
	return nil
}

const (
	minQuantity = 1
	maxQuantity = 100
)

func (s *shell) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: add <s>.<p>|<product id> [qty]")
	}
	product, sup, ok := s.resolveProduct(ctx, args[0])
	if !ok {
		s.popups.Warning("", "No such product on the current page.")
		return fmt.Errorf("bad product reference %q", args[0])
	}
	qty := minQuantity
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad quantity %q", args[1])
		}
		qty = clampQuantity(n)
		if qty != n {
			s.popups.Warning("", fmt.Sprintf("Quantity must be between %d and %d, using %d.", minQuantity, maxQuantity, qty))
		}
	}
	return s.cart.AddItem(ctx, product, sup, qty)
}

// resolveProduct accepts either a <s>.<p> position on the current page or a
// cached product id.
func (s *shell) resolveProduct(ctx context.Context, ref string) (catalog.Product, suppliers.Supplier, bool) {
	page := s.search.Page()
	if si, pi, ok := parseRef(ref); ok {
		if si >= len(page.Suppliers) || pi >= len(page.Suppliers[si].Products) {
			return catalog.Product{}, suppliers.Supplier{}, false
		}
		sup := page.Suppliers[si]
		return sup.Products[pi], sup, true
	}

	product, err := s.orders.GetProduct(ctx, ref)
	if err != nil {
		return catalog.Product{}, suppliers.Supplier{}, false
	}
	for _, sup := range page.Suppliers {
		if sup.PlaceID == product.SupplierID {
			return product, sup, true
		}
	}
	return product, suppliers.Supplier{PlaceID: product.SupplierID, Name: product.SupplierName}, true
}

func clampQuantity(n int) int {
	return max(minQuantity, min(n, maxQuantity))
}

func parseRef(ref string) (int, int, bool) {
	left, right, found := strings.Cut(ref, ".")
	if !found {
		return 0, 0, false
	}
	si, err1 := strconv.Atoi(left)
	pi, err2 := strconv.Atoi(right)
	if err1 != nil || err2 != nil || si < 1 || pi < 1 {
		return 0, 0, false
	}
	return si - 1, pi - 1, true
}

func (s *shell) printCart() {
	items := s.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Your cart is empty.")
		return
	}
	for i, item := range items {
		fmt.Fprintf(s.out, "%d. %s x %d %s @ ₹%s from %s = ₹%s\n",
			i+1, item.Name, item.Quantity, item.Unit, item.Price.StringFixed(2), item.SupplierName, item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(s.out, "subtotal ₹%s + delivery ₹%s = total ₹%s\n",
		s.cart.Subtotal().StringFixed(2), orders.DeliveryCharge.StringFixed(2), s.cart.Total().StringFixed(2))
}

func (s *shell) line(arg string) (cart.Item, bool) {
	n, err := strconv.Atoi(arg)
	items := s.cart.Items()
	if err != nil || n < 1 || n > len(items) {
		s.popups.Warning("", "No such cart line.")
		return cart.Item{}, false
	}
	return items[n-1], true
}

func (s *shell) setQuantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: qty <line> <n>")
	}
	item, ok := s.line(args[0])
	if !ok {
		return nil
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad quantity %q", args[1])
	}
	s.cart.UpdateQuantity(ctx, item.ID, item.SupplierID, qty)
	s.printCart()
	return nil
}

func (s *shell) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove <line>")
	}
	item, ok := s.line(args[0])
	if !ok {
		return nil
	}
	if !s.confirm(ctx, s.popups.ConfirmDelete(item.Name)) {
		return nil
	}
	if s.cart.RemoveItem(ctx, item.ID, item.SupplierID) {
		s.popups.Info("", item.Name+" removed from cart")
	}
	return nil
}

func (s *shell) clear(ctx context.Context) error {
	items := s.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Your cart is empty.")
		return nil
	}
	if !s.confirm(ctx, s.popups.ConfirmDeleteAll("cart items")) {
		return nil
	}
	for _, item := range items {
		s.cart.RemoveItem(ctx, item.ID, item.SupplierID)
	}
	s.popups.Info("", "Cart cleared")
	return nil
}

// confirm reads the answer for the modal the manager is showing.
func (s *shell) confirm(ctx context.Context, pending *popup.Pending) bool {
	line, ok := s.readLine()
	if !ok {
		s.popups.Escape()
	} else {
		s.popups.Resolve(strings.EqualFold(line, "y") || strings.EqualFold(line, "yes"))
	}
	answer, err := pending.Wait(ctx)
	return err == nil && answer
}

func (s *shell) checkout(ctx context.Context) error {
	if len(s.cart.Items()) == 0 {
		_, err := s.cart.Checkout(ctx)
		return err
	}
	msg := fmt.Sprintf("Place order for ₹%s including delivery?", s.cart.Total().StringFixed(2))
	if !s.confirm(ctx, s.popups.Confirm(msg, "Checkout", popup.ConfirmOptions{ConfirmText: "Place Order", ConfirmStyle: "success"})) {
		return nil
	}
	order, err := s.cart.Checkout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order %s total ₹%s\n", order.ID, order.Total.StringFixed(2))
	return nil
}

func (s *shell) listOrders(ctx context.Context) error {
	list, err := s.orders.GetOrders(ctx)
	if err != nil {
		s.popups.Error("", "Could not load orders.")
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No orders yet.")
		return nil
	}
	for _, o := range list {
		fmt.Fprintf(s.out, "%s  %s  %s  ₹%s  %s\n", o.ID, o.CreatedAt.Local().Format("02 Jan 15:04"), o.Status, o.Total.StringFixed(2), o.ItemsSummary)
	}
	return nil
}

func (s *shell) showOrder(ctx context.Context, id string) error {
	o, err := s.orders.GetOrderDetails(ctx, id)
	if err != nil {
		s.popups.Error("", "Order not found.")
		return err
	}
	fmt.Fprintf(s.out, "%s for %s (%s)\n", o.ID, o.VendorInfo.Name, o.Status)
	for _, item := range o.Items {
		fmt.Fprintf(s.out, "  %s x %d = ₹%s\n", item.Name, item.Quantity, item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(s.out, "  subtotal ₹%s delivery ₹%s total ₹%s\n", o.Subtotal.StringFixed(2), o.DeliveryCharge.StringFixed(2), o.Total.StringFixed(2))
	return nil
}

func (s *shell) showCatalog(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: catalog <category>")
	}
	category, ok := catalog.ParseCategory(args[0])
	if !ok {
		s.popups.Warning("", fmt.Sprintf("Unknown category %q.", args[0]))
		return nil
	}
	products, err := s.orders.GetProductsByCategory(ctx, category)
	if err != nil {
		return err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	for _, p := range products {
		fmt.Fprintf(s.out, "%s  ₹%s/%s  %s\n", p.Name, p.Price.StringFixed(2), p.Unit, p.SupplierName)
	}
	if len(products) == 0 {
		fmt.Fprintln(s.out, "No cached products in that category.")
	}
	return nil
}

func (s *shell) placeServerOrder(ctx context.Context) error {
	resp, err := s.server.PlaceOrder(ctx, types.PlaceOrderRequest{
		VendorName:    s.vendor.Name,
		VendorPhone:   s.vendor.Phone,
		VendorAddress: s.vendor.Address,
	}, uuid.NewString())
	if err != nil {
		s.popups.Error("", "Failed to place order. Please try again.")
		return err
	}
	if !resp.Success {
		s.popups.Error("", resp.Message)
		return nil
	}
	s.popups.Success("", resp.Message)
	fmt.Fprintf(s.out, "server order %s total ₹%.2f\n", resp.OrderID, resp.Total)
	return nil
}

func (s *shell) register() error {
	w, err := wizard.New(wizard.RegistrationSteps())
	if err != nil {
		return err
	}
	for !w.Complete() {
		step := w.Step()
		p := w.Progress()
		fmt.Fprintf(s.out, "Step %d of %d: %s (%d%%)\n", p.Step, p.Total, step.Title, p.Percent)
		values := wizard.Values{}
		for _, f := range step.Fields {
			fmt.Fprintf(s.out, "  %s: ", f.Label)
			line, ok := s.readLine()
			if !ok {
				return nil
			}
			if line == "<" {
				w.Prev()
				break
			}
			switch f.Kind {
			case wizard.KindCategories:
				values[f.Name] = strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
			default:
				values[f.Name] = line
			}
		}
		if len(values) < len(step.Fields) {
			continue
		}
		res, ok := w.Next(values)
		if !ok {
			names := make([]string, 0, len(res.Errors))
			for name := range res.Errors {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(s.out, "  ! %s: %s\n", name, res.Errors[name])
			}
		}
	}
	s.popups.Success("", "Registration details look good!")
	return nil
}
