// Package export writes the company book to an XLSX workbook.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dealflow/internal/company"
)

var headers = []string{
	"Name", "Domain", "Website", "Entity Type", "In Primary View",
	"Classification Source", "Confidence", "Stage", "Priority", "City", "Created",
}

// WriteCompanies writes one row per company to an XLSX file at path.
func WriteCompanies(path string, companies []company.Company) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Companies")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().Value = h
	}

	for _, c := range companies {
		r := sheet.AddRow()
		r.AddCell().Value = c.CanonicalName
		r.AddCell().Value = c.PrimaryDomain
		r.AddCell().Value = c.WebsiteURL
		r.AddCell().Value = string(c.EntityType)
		r.AddCell().Value = fmt.Sprintf("%t", c.IncludeInPrimaryView)
		r.AddCell().Value = c.ClassificationSource
		if c.ClassificationConfidence != nil {
			r.AddCell().Value = fmt.Sprintf("%.2f", *c.ClassificationConfidence)
		} else {
			r.AddCell().Value = ""
		}
		r.AddCell().Value = c.Stage
		r.AddCell().Value = c.Priority
		r.AddCell().Value = c.City
		r.AddCell().Value = c.CreatedAt.Format("2006-01-02")
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}
