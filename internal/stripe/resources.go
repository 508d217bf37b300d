package stripe

import (
	"context"
	"net/url"
	"strconv"
)

// Resource is a collection endpoint such as /customers. Not every resource
// supports every method; Stripe rejects unsupported ones with a 404.
type Resource struct {
	c    *Client
	path string
}

func (c *Client) resource(path string) Resource { return Resource{c: c, path: path} }

// Customers is /customers.
func (c *Client) Customers() Resource { return c.resource("/customers") }

// PaymentIntents is /payment_intents.
func (c *Client) PaymentIntents() Resource { return c.resource("/payment_intents") }

// Products is /products.
func (c *Client) Products() Resource { return c.resource("/products") }

// Prices is /prices.
func (c *Client) Prices() Resource { return c.resource("/prices") }

// Subscriptions is /subscriptions. Delete cancels a subscription.
func (c *Client) Subscriptions() Resource { return c.resource("/subscriptions") }

// Refunds is /refunds.
func (c *Client) Refunds() Resource { return c.resource("/refunds") }

// Invoices is /invoices.
func (c *Client) Invoices() Resource { return c.resource("/invoices") }

// CheckoutSessions is /checkout/sessions.
func (c *Client) CheckoutSessions() Resource { return c.resource("/checkout/sessions") }

// PaymentLinks is /payment_links.
func (c *Client) PaymentLinks() Resource { return c.resource("/payment_links") }

// Balance returns the account balance.
func (c *Client) Balance(ctx context.Context) (Object, error) {
	var o Object
	if err := c.get(ctx, "/balance", nil, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r Resource) object(id string, parts ...string) string {
	p := r.path + "/" + url.PathEscape(id)
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

// Create creates an object.
func (r Resource) Create(ctx context.Context, p Params) (Object, error) {
	var o Object
	if err := r.c.post(ctx, r.path, p, &o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get retrieves an object. p may carry expand.
func (r Resource) Get(ctx context.Context, id string, p Params) (Object, error) {
	var o Object
	if err := r.c.get(ctx, r.object(id), p, &o); err != nil {
		return nil, err
	}
	return o, nil
}

// Update updates an object.
func (r Resource) Update(ctx context.Context, id string, p Params) (Object, error) {
	var o Object
	if err := r.c.post(ctx, r.object(id), p, &o); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete deletes (or, for subscriptions, cancels) an object.
func (r Resource) Delete(ctx context.Context, id string) (Object, error) {
	var o Object
	if err := r.c.delete(ctx, r.object(id), &o); err != nil {
		return nil, err
	}
	return o, nil
}

// Action posts to a sub-endpoint such as /payment_intents/{id}/confirm.
func (r Resource) Action(ctx context.Context, id, action string, p Params) (Object, error) {
	var o Object
	if err := r.c.post(ctx, r.object(id, action), p, &o); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns one page of objects.
func (r Resource) List(ctx context.Context, p Params) (*List, error) {
	var l List
	if err := r.c.get(ctx, r.path, p, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Search runs a search query (customers, payment intents, products,
// prices, subscriptions, invoices).
func (r Resource) Search(ctx context.Context, query string, limit int, page string) (*List, error) {
	p := Params{"query": query}
	if limit > 0 {
		p["limit"] = strconv.Itoa(limit)
	}
	if page != "" {
		p["page"] = page
	}
	var l List
	if err := r.c.get(ctx, r.path+"/search", p, &l); err != nil {
		return nil, err
	}
	return &l, nil
}
