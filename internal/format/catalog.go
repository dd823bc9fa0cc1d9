package format

import (
	"fmt"
	"strings"

	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/showcase"
)

// PrintEndpoints lists the catalog
func PrintEndpoints(endpoints []catalog.Endpoint) {
	if len(endpoints) == 0 {
		dimColor.Fprintln(Out, "No endpoints configured")
		return
	}
	for _, ep := range endpoints {
		headerKeyColor.Fprintf(Out, "%-10s ", ep.ID)
		methodColor.Fprintf(Out, "%-5s ", ep.Method)
		fmt.Fprintln(Out, sanitizeOutput(ep.Name))
		dimColor.Fprintf(Out, "           %s\n", sanitizeOutput(ep.Description))
	}
}

// PrintEndpointDetail prints one endpoint with its schema
func PrintEndpointDetail(ep catalog.Endpoint) {
	headerKeyColor.Fprintf(Out, "%s ", sanitizeOutput(ep.Name))
	dimColor.Fprintf(Out, "(%s)\n", ep.ID)
	methodColor.Fprintf(Out, "%s ", ep.Method)
	urlColor.Fprintln(Out, sanitizeOutput(ep.BaseURL))
	if ep.Description != "" {
		fmt.Fprintln(Out, sanitizeOutput(ep.Description))
	}
	if ep.DocsURL != "" {
		dimColor.Fprintf(Out, "Docs: %s\n", sanitizeOutput(ep.DocsURL))
	}
	fmt.Fprintln(Out)

	if len(ep.Headers) > 0 {
		fmt.Fprintln(Out, "Headers:")
		for _, h := range ep.Headers {
			headerKeyColor.Fprintf(Out, "  %s: ", sanitizeOutput(h.Name))
			fmt.Fprintln(Out, sanitizeOutput(h.Value))
		}
		fmt.Fprintln(Out)
	}

	if len(ep.QueryParams) > 0 {
		fmt.Fprintln(Out, "Query parameters:")
		for _, q := range ep.QueryParams {
			headerKeyColor.Fprintf(Out, "  %s", sanitizeOutput(q.Name))
			dimColor.Fprintf(Out, " = %q\n", q.Default)
		}
		fmt.Fprintln(Out)
	}

	if len(ep.Body) > 0 {
		if ep.RequiresBody {
			fmt.Fprintln(Out, "Body fields:")
		} else {
			fmt.Fprintln(Out, "Body fields (not sent):")
		}
		for _, f := range ep.Body {
			headerKeyColor.Fprintf(Out, "  %s", sanitizeOutput(f.Name))
			dimColor.Fprintf(Out, " [%s] = %s\n", f.Kind, sanitizeOutput(renderDefault(f.Default)))
		}
	}
}

func renderDefault(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return strings.ReplaceAll(renderData(v), "\n", " ")
}

// PrintRequest prints a one-line history entry
func PrintRequest(req *model.Request) {
	methodColor.Fprintf(Out, "%s ", req.Method)
	urlColor.Fprintln(Out, sanitizeOutput(req.URL))
	dimColor.Fprintf(Out, "  ID: %s\n", req.ID)
	dimColor.Fprintf(Out, "  Time: %s\n", req.Timestamp.Format("2006-01-02 15:04:05"))

	if req.Response != nil {
		fmt.Fprint(Out, "  Status: ")
		printStatusCode(req.Response)
		fmt.Fprintln(Out)
	}
}

// PrintRequestDetail prints full request/response details
func PrintRequestDetail(req *model.Request) {
	fmt.Fprintln(Out, "Request:")
	fmt.Fprintln(Out, strings.Repeat("-", 40))
	methodColor.Fprintf(Out, "%s ", req.Method)
	urlColor.Fprintln(Out, sanitizeOutput(req.URL))
	dimColor.Fprintf(Out, "ID: %s\n", req.ID)
	if req.EndpointID != "" {
		dimColor.Fprintf(Out, "Endpoint: %s\n", req.EndpointID)
	}
	dimColor.Fprintf(Out, "Time: %s\n\n", req.Timestamp.Format("2006-01-02 15:04:05"))

	if len(req.Headers) > 0 {
		printHeaders(req.Headers)
	}

	if req.Body != "" {
		fmt.Fprintln(Out, "Body:")
		fmt.Fprintln(Out, sanitizeOutput(prettyJSON(req.Body)))
		fmt.Fprintln(Out)
	}

	if req.Response != nil {
		fmt.Fprintln(Out, "\nResponse:")
		fmt.Fprintln(Out, strings.Repeat("-", 40))
		PrintResponse(req.Response, true)
	}
}

func printStatusCode(resp *model.Response) {
	if resp.TransportFailed() {
		clientErrColor.Fprint(Out, "ERR ")
		return
	}
	getStatusColor(resp.Status).Fprintf(Out, "%d ", resp.Status)
}

// PrintHistoryList prints a list of requests in a compact format
func PrintHistoryList(requests []model.Request, limit int) {
	if len(requests) == 0 {
		dimColor.Fprintln(Out, "No requests in history")
		return
	}

	count := len(requests)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		req := requests[i]
		dimColor.Fprintf(Out, "[%d] ", i+1)
		methodColor.Fprintf(Out, "%-5s ", req.Method)

		url := req.URL
		if len(url) > 60 {
			url = url[:57] + "..."
		}
		urlColor.Fprintf(Out, "%-60s ", sanitizeOutput(url))

		if req.Response != nil {
			printStatusCode(req.Response)
			dimColor.Fprintf(Out, "(%dms)", req.Response.ElapsedMs)
		}
		fmt.Fprintln(Out)
	}

	if limit > 0 && len(requests) > limit {
		dimColor.Fprintf(Out, "\n... and %d more requests\n", len(requests)-limit)
	}
}

// PrintFlowStep prints the showcase progress, the cart and the showing offer
func PrintFlowStep(f *showcase.Flow) {
	current := f.Step().Index()
	for i, step := range showcase.Steps {
		switch {
		case i == current:
			successColor.Fprintf(Out, "[%s]", step)
		case i < current:
			fmt.Fprintf(Out, " %s ", step)
		default:
			dimColor.Fprintf(Out, " %s ", step)
		}
		if i < len(showcase.Steps)-1 {
			dimColor.Fprint(Out, " > ")
		}
	}
	fmt.Fprintln(Out)

	if cart := f.Cart(); len(cart) > 0 {
		for _, p := range cart {
			fmt.Fprintf(Out, "  %-30s $%.2f\n", p.Name, p.Price)
		}
		fmt.Fprintf(Out, "  %-30s $%.2f\n", "Subtotal:", f.Total())
		if s := f.Savings(); s > 0 {
			successColor.Fprintf(Out, "  %-30s -$%.2f\n", "Discount (15%):", s)
		}
		if f.FreeShipping() {
			successColor.Fprintf(Out, "  %-30s FREE\n", "Shipping:")
		}
		fmt.Fprintf(Out, "  %-30s $%.2f\n", "Total:", f.Total()-f.Savings())
	}

	if o, ok := f.Offer(); ok {
		headerKeyColor.Fprintf(Out, "  Offer: %s ", o.Title)
		successColor.Fprintf(Out, "%s\n", o.Value)
		dimColor.Fprintf(Out, "  %s\n", o.Description)
	}

	if order := f.Order(); order != nil {
		successColor.Fprintf(Out, "  Order %s complete: $%.2f %s\n", order.ID, order.Value, order.Currency)
	}
}
