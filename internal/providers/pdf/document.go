package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) RenderEstimate(ctx context.Context, data DocumentData) (io.Reader, error) {
	return render("Estimate", data)
}

func (p *MarotoProvider) RenderInvoice(ctx context.Context, data DocumentData) (io.Reader, error) {
	return render("Invoice", data)
}

func render(heading string, data DocumentData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, heading, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New(heading+" number: "+data.DocumentNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 4}),
			text.New(data.SecondaryLabel+": "+data.SecondaryDate, props.Text{Top: 8}),
			text.New("Status: "+data.Status, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(40,
		col.New(6).Add(
			text.New(data.OrgName, props.Text{Style: fontstyle.Bold}),
			text.New(data.OrgAddress, props.Text{Top: 5}),
			text.New(data.OrgEmail, props.Text{Top: 20}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.BillToName, props.Text{Top: 5}),
			text.New(data.BillToCompany, props.Text{Top: 9}),
			text.New(data.BillToAddress, props.Text{Top: 13}),
			text.New(data.BillToEmail, props.Text{Top: 25}),
		),
	)

	if data.Title != "" {
		m.AddRow(12,
			text.NewCol(12, data.Title, props.Text{
				Size:  12,
				Style: fontstyle.Bold,
				Top:   3,
			}),
		)
	}

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range data.Items {
		m.AddRow(12,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, data.TaxLabel, props.Text{Size: 9}),
		text.NewCol(2, data.Tax, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	if data.AmountDue != "" {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, data.AmountDue, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
