package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"offerdesk/collections"
	"offerdesk/lineitems"
	"offerdesk/services"
	"offerdesk/templates"
)

func (d *Deps) offerEvent(event string) {
	if d.Metrics != nil {
		d.Metrics.OfferEvent(event)
	}
}

func (d *Deps) money(v float64) string {
	return services.FormatMoney(v, d.Config.Currency)
}

// offerListItems maps offer records with their expanded customer.
func offerListItems(d *Deps, records []*core.Record) []templates.OfferListItem {
	if errs := d.App.ExpandRecords(records, []string{"customer"}, nil); len(errs) > 0 {
		zap.S().Warnf("offers: could not expand customers: %v", errs)
	}
	items := make([]templates.OfferListItem, 0, len(records))
	for _, rec := range records {
		item := templates.OfferListItem{
			ID:          rec.Id,
			OfferNumber: rec.GetString("offer_number"),
			Title:       rec.GetString("title"),
			Status:      rec.GetString("status"),
			MRR:         d.money(rec.GetFloat("mrr")),
			TCV:         d.money(rec.GetFloat("tcv")),
			Created:     rec.GetDateTime("created").Time().Format("02 Jan 2006"),
		}
		if c := rec.ExpandedOne("customer"); c != nil {
			item.Customer = c.GetString("name")
		}
		items = append(items, item)
	}
	return items
}

// HandleOfferList lists offers, scoped to the active customer.
func HandleOfferList(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		params := parseListParams(e, d.Config.PageSize)
		status := e.Request.URL.Query().Get("status")

		var parts []string
		filterParams := map[string]any{}
		if active := GetActiveCustomer(e.Request); active != nil {
			parts = append(parts, "customer = {:customer}")
			filterParams["customer"] = active.ID
		}
		if status != "" {
			parts = append(parts, "status = {:status}")
			filterParams["status"] = status
		}
		if params.Search != "" {
			parts = append(parts, "(offer_number ~ {:search} || title ~ {:search} || customer.name ~ {:search})")
			filterParams["search"] = params.Search
		}
		filter := andFilter(parts...)

		all, err := d.App.FindRecordsByFilter("offers", filter, "", 0, 0, filterParams)
		if err != nil {
			zap.S().Errorf("offer_list: could not count offers: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to load offers")
		}

		q := url.Values{}
		if params.Search != "" {
			q.Set("search", params.Search)
		}
		if status != "" {
			q.Set("status", status)
		}
		base := "/offers"
		if len(q) > 0 {
			base += "?" + q.Encode()
		}
		pagination, offset := params.pagination(len(all), base)

		records, err := d.App.FindRecordsByFilter("offers", filter, "-created", params.PageSize, offset, filterParams)
		if err != nil {
			zap.S().Errorf("offer_list: could not query offers: %v", err)
			records = nil
		}

		data := templates.OfferListData{
			Items:      offerListItems(d, records),
			Status:     status,
			Search:     params.Search,
			Statuses:   templates.OptionsFrom(collections.OfferStatuses),
			Pagination: pagination,
		}
		return render(e, templates.OfferListContent(data), func(h templates.HeaderData, s templates.SidebarData) templ.Component {
			return templates.OfferListPage(data, h, s)
		})
	}
}

func recordLabel(app core.App, collection, id string) string {
	if id == "" {
		return ""
	}
	rec, err := app.FindRecordById(collection, id)
	if err != nil {
		return ""
	}
	return rec.GetString(services.RelationLabelField[collection])
}

// offerEditors loads both editors of a saved offer concurrently.
func offerEditors(ctx context.Context, d *Deps, offer *core.Record, readOnly bool) ([]templates.EditorData, error) {
	kinds := []*lineitems.Kind{lineitems.Environments, lineitems.ServiceSets}
	eds := make([]*lineitems.Editor, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			ed, err := loadOfferEditor(gctx, d, kind, offer)
			eds[i] = ed
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]templates.EditorData, len(eds))
	for i, ed := range eds {
		out[i] = editorData(d, ed, "/offers/"+offer.Id+"/lines/"+kindSlug(ed.Kind()), readOnly)
	}
	return out, nil
}

func findContract(app core.App, offerID string) *core.Record {
	rec, err := app.FindFirstRecordByFilter("contracts", "offer = {:offer}", map[string]any{"offer": offerID})
	if err != nil {
		return nil
	}
	return rec
}

// HandleOfferView renders an offer with its lines and revenue.
func HandleOfferView(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		offer, err := d.App.FindRecordById("offers", id)
		if err != nil {
			return e.String(http.StatusNotFound, "Offer not found")
		}

		ctx := e.Request.Context()
		_, rev, err := services.LoadOfferRevenue(ctx, d.App, id)
		if err != nil {
			zap.S().Errorf("offer_view: could not load revenue of %s: %v", id, err)
			return e.String(http.StatusServiceUnavailable, "Could not load offer lines")
		}
		editors, err := offerEditors(ctx, d, offer, true)
		if err != nil {
			zap.S().Errorf("offer_view: could not load editors of %s: %v", id, err)
			return e.String(http.StatusServiceUnavailable, lineitems.UserMessage(err))
		}

		status := offer.GetString("status")
		data := templates.OfferViewData{
			ID:          id,
			OfferNumber: offer.GetString("offer_number"),
			Title:       offer.GetString("title"),
			Customer:    recordLabel(d.App, "customers", offer.GetString("customer")),
			Opportunity: recordLabel(d.App, "opportunities", offer.GetString("opportunity")),
			Partner:     recordLabel(d.App, "partners", offer.GetString("partner")),
			Status:      status,
			Notes:       offer.GetString("notes"),
			Created:     offer.GetDateTime("created").Time().Format("02 Jan 2006"),
			CanEdit:     !services.OfferReadOnly(status),
			Editors:     editors,
			Revenue: templates.RevenueData{
				MRR:            d.money(rev.MRR),
				LicenseTCV:     d.money(rev.LicenseTCV),
				ServiceRevenue: d.money(rev.ServiceRevenue),
				TCV:            d.money(rev.TCV),
				ServiceCost:    d.money(rev.ServiceCost),
				Margin:         d.money(rev.Margin),
				MarginPercent:  services.FormatPercent(rev.MarginPercent),
			},
		}
		if dt := offer.GetDateTime("valid_until"); !dt.IsZero() {
			data.ValidUntil = dt.Time().Format("02 Jan 2006")
		}
		for _, s := range services.NextOfferStatuses(status) {
			data.NextStatuses = append(data.NextStatuses, templates.Option{Value: s, Label: services.Humanize(s)})
		}
		if contract := findContract(d.App, id); contract != nil {
			data.ContractID = contract.Id
		} else {
			data.CanConvert = status == "accepted"
		}
		for _, name := range offer.GetStringSlice("documents") {
			data.Documents = append(data.Documents, templates.DocumentLink{
				Name: name,
				URL:  "/offers/" + id + "/documents/" + url.PathEscape(name),
			})
		}

		return render(e, templates.OfferViewContent(data), func(h templates.HeaderData, s templates.SidebarData) templ.Component {
			return templates.OfferViewPage(data, h, s)
		})
	}
}

// HandleOfferDocument serves one of an offer's attachments.
func HandleOfferDocument(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		offer, err := d.App.FindRecordById("offers", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Offer not found")
		}
		name := e.Request.PathValue("name")
		found := false
		for _, doc := range offer.GetStringSlice("documents") {
			if doc == name {
				found = true
				break
			}
		}
		if !found {
			return e.String(http.StatusNotFound, "Document not found")
		}

		fsys, err := d.App.NewFilesystem()
		if err != nil {
			zap.S().Errorf("offer_document: could not open filesystem: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}
		defer fsys.Close()
		return fsys.Serve(e.Response, e.Request, offer.BaseFilesPath()+"/"+name, name)
	}
}

// HandleOfferDelete deletes an offer; its groups and items cascade.
func HandleOfferDelete(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		offer, err := d.App.FindRecordById("offers", e.Request.PathValue("id"))
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Offer not found")
		}
		if err := d.App.Delete(offer); err != nil {
			zap.S().Errorf("offer_delete: could not delete %s: %v", offer.Id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to delete offer")
		}
		d.offerEvent("deleted")
		SetToast(e, "success", "Offer "+offer.GetString("offer_number")+" deleted")
		e.Response.Header().Set("HX-Redirect", "/offers")
		return e.String(http.StatusOK, "")
	}
}

// HandleOfferStatus moves an offer along its status workflow.
func HandleOfferStatus(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		offer, err := d.App.FindRecordById("offers", e.Request.PathValue("id"))
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Offer not found")
		}
		if err := e.Request.ParseForm(); err != nil {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		from, to := offer.GetString("status"), e.Request.FormValue("status")
		if err := services.ValidateTransition(from, to); err != nil {
			return ErrorToast(e, http.StatusUnprocessableEntity, fmt.Sprintf("An offer that is %s cannot be marked %s", services.Humanize(from), services.Humanize(to)))
		}

		offer.Set("status", to)
		if err := d.App.Save(offer); err != nil {
			zap.S().Errorf("offer_status: could not save %s: %v", offer.Id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to update status")
		}
		d.offerEvent("status_" + to)
		SetToast(e, "success", "Offer marked "+services.Humanize(to))
		e.Response.Header().Set("HX-Redirect", "/offers/"+offer.Id)
		return e.String(http.StatusOK, "")
	}
}

// HandleOfferContract turns an accepted offer into an active contract. The
// contract runs for the longest license duration of the offer.
func HandleOfferContract(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		offer, err := d.App.FindRecordById("offers", e.Request.PathValue("id"))
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Offer not found")
		}
		if offer.GetString("status") != "accepted" {
			return ErrorToast(e, http.StatusUnprocessableEntity, "Only accepted offers can become contracts")
		}
		if findContract(d.App, offer.Id) != nil {
			return ErrorToast(e, http.StatusConflict, "This offer already has a contract")
		}

		lines, rev, err := services.LoadOfferRevenue(e.Request.Context(), d.App, offer.Id)
		if err != nil {
			zap.S().Errorf("offer_contract: could not load lines of %s: %v", offer.Id, err)
			return ErrorToast(e, http.StatusServiceUnavailable, "Could not load offer lines")
		}
		months := d.Config.EnvironmentMonths
		for _, g := range lines.Environments {
			months = max(months, g.Attrs.DurationMonths)
		}

		now := time.Now().UTC()
		var contract *core.Record
		err = d.App.RunInTransaction(func(txApp core.App) error {
			number, err := services.GenerateContractNumber(txApp, now)
			if err != nil {
				return err
			}
			col, err := txApp.FindCollectionByNameOrId("contracts")
			if err != nil {
				return err
			}
			contract = core.NewRecord(col)
			contract.Set("contract_number", number)
			contract.Set("customer", offer.GetString("customer"))
			contract.Set("offer", offer.Id)
			contract.Set("start_date", now.Format(time.DateOnly)+" 00:00:00.000Z")
			contract.Set("end_date", now.AddDate(0, months, 0).Format(time.DateOnly)+" 00:00:00.000Z")
			contract.Set("status", "active")
			contract.Set("mrr", rev.MRR)
			contract.Set("tcv", rev.TCV)
			return txApp.Save(contract)
		})
		if err != nil {
			zap.S().Errorf("offer_contract: could not create contract for %s: %v", offer.Id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to create contract")
		}

		d.offerEvent("converted")
		SetToast(e, "success", "Contract "+contract.GetString("contract_number")+" created")
		e.Response.Header().Set("HX-Redirect", "/contracts/"+contract.Id+"/edit")
		return e.String(http.StatusOK, "")
	}
}

func offerExport(e *core.RequestEvent, d *Deps) (services.OfferExport, error) {
	offer, err := d.App.FindRecordById("offers", e.Request.PathValue("id"))
	if err != nil {
		return services.OfferExport{}, err
	}
	lines, rev, err := services.LoadOfferRevenue(e.Request.Context(), d.App, offer.Id)
	if err != nil {
		return services.OfferExport{}, err
	}
	header := services.OfferExport{
		Title:       offer.GetString("title"),
		OfferNumber: offer.GetString("offer_number"),
		Customer:    recordLabel(d.App, "customers", offer.GetString("customer")),
		Status:      services.Humanize(offer.GetString("status")),
		CreatedDate: offer.GetDateTime("created").Time().Format("02 Jan 2006"),
		Currency:    d.Config.Currency,
	}
	if dt := offer.GetDateTime("valid_until"); !dt.IsZero() {
		header.ValidUntil = dt.Time().Format("02 Jan 2006")
	}
	return services.BuildOfferExport(header, lines, rev), nil
}

// HandleOfferExportPDF downloads the offer as a PDF document.
func HandleOfferExportPDF(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := offerExport(e, d)
		if err != nil {
			zap.S().Errorf("offer_export: %v", err)
			return e.String(http.StatusNotFound, "Offer not found")
		}
		pdf, err := services.GenerateOfferPDF(data)
		if err != nil {
			zap.S().Errorf("offer_export: could not generate PDF for %s: %v", data.OfferNumber, err)
			return e.String(http.StatusInternalServerError, "Failed to generate PDF")
		}
		return sendFile(e, pdf, data.OfferNumber+".pdf", pdfContentType)
	}
}

// HandleOfferExportExcel downloads the offer as a workbook.
func HandleOfferExportExcel(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := offerExport(e, d)
		if err != nil {
			zap.S().Errorf("offer_export: %v", err)
			return e.String(http.StatusNotFound, "Offer not found")
		}
		xlsx, err := services.GenerateOfferExcel(data)
		if err != nil {
			zap.S().Errorf("offer_export: could not generate workbook for %s: %v", data.OfferNumber, err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel")
		}
		return sendFile(e, xlsx, data.OfferNumber+".xlsx", xlsxContentType)
	}
}
