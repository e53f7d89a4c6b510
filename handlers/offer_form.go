package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"go.uber.org/zap"

	"offerdesk/drafts"
	"offerdesk/lineitems"
	"offerdesk/services"
	"offerdesk/templates"
)

const maxUploadMemory = 32 << 20

// offerForm holds the submitted header fields of an offer.
type offerForm struct {
	Title       string `json:"title"`
	Customer    string `json:"customer"`
	Opportunity string `json:"opportunity"`
	Partner     string `json:"partner"`
	ValidUntil  string `json:"valid_until"`
	Notes       string `json:"notes"`
}

func readOfferForm(e *core.RequestEvent) offerForm {
	get := func(k string) string { return strings.TrimSpace(e.Request.FormValue(k)) }
	return offerForm{
		Title:       get("title"),
		Customer:    get("customer"),
		Opportunity: get("opportunity"),
		Partner:     get("partner"),
		ValidUntil:  get("valid_until"),
		Notes:       get("notes"),
	}
}

func (f offerForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required.Error("Title is required"), validation.Length(0, 200)),
		validation.Field(&f.Customer, validation.Required.Error("Customer is required")),
		validation.Field(&f.ValidUntil, validation.Date(time.DateOnly).Error("must be a date (YYYY-MM-DD)")),
	)
}

// validate runs the field rules and checks that referenced records exist.
func (f offerForm) validate(app core.App) map[string]string {
	errs := map[string]string{}
	var verrs validation.Errors
	if err := f.Validate(); errors.As(err, &verrs) {
		for k, v := range verrs {
			errs[k] = v.Error()
		}
	}
	refs := []struct{ field, collection, id string }{
		{"customer", "customers", f.Customer},
		{"opportunity", "opportunities", f.Opportunity},
		{"partner", "partners", f.Partner},
	}
	for _, r := range refs {
		if r.id == "" || errs[r.field] != "" {
			continue
		}
		rec, err := app.FindRecordById(r.collection, r.id)
		if err != nil {
			errs[r.field] = "does not exist"
			continue
		}
		if r.field == "opportunity" && rec.GetString("customer") != f.Customer {
			errs[r.field] = "belongs to another customer"
		}
	}
	return errs
}

func (f offerForm) apply(rec *core.Record) {
	rec.Set("title", f.Title)
	rec.Set("customer", f.Customer)
	rec.Set("opportunity", f.Opportunity)
	rec.Set("partner", f.Partner)
	rec.Set("notes", f.Notes)
	if f.ValidUntil != "" {
		rec.Set("valid_until", f.ValidUntil+" 00:00:00.000Z")
	} else {
		rec.Set("valid_until", "")
	}
}

func selectOptions(app core.App, collection, filter string, params map[string]any) []templates.Option {
	labelField := services.RelationLabelField[collection]
	records, err := app.FindRecordsByFilter(collection, filter, labelField, 0, 0, params)
	if err != nil {
		zap.S().Warnf("offer_form: could not load %s: %v", collection, err)
		return nil
	}
	out := make([]templates.Option, 0, len(records))
	for _, rec := range records {
		out = append(out, templates.Option{Value: rec.Id, Label: rec.GetString(labelField)})
	}
	return out
}

// offerFormData fills the select options of the form. Opportunities are
// narrowed to the chosen customer.
func offerFormData(d *Deps, f offerForm) templates.OfferFormData {
	data := templates.OfferFormData{
		Title:       f.Title,
		Customer:    f.Customer,
		Opportunity: f.Opportunity,
		Partner:     f.Partner,
		ValidUntil:  f.ValidUntil,
		Notes:       f.Notes,
		Customers:   selectOptions(d.App, "customers", matchAll, nil),
		Partners:    selectOptions(d.App, "partners", matchAll, nil),
		Errors:      map[string]string{},
	}
	if f.Customer != "" {
		data.Opportunities = selectOptions(d.App, "opportunities", "customer = {:customer}", map[string]any{"customer": f.Customer})
	} else {
		data.Opportunities = selectOptions(d.App, "opportunities", matchAll, nil)
	}
	return data
}

func draftEditors(d *Deps, draft *drafts.Draft) []templates.EditorData {
	var out []templates.EditorData
	for _, kind := range []*lineitems.Kind{lineitems.Environments, lineitems.ServiceSets} {
		if ed := draft.Editor(kind); ed != nil {
			out = append(out, editorData(d, ed, "/drafts/"+draft.Token+"/"+kindSlug(kind), false))
		}
	}
	return out
}

func renderOfferForm(e *core.RequestEvent, data templates.OfferFormData) error {
	return render(e, templates.OfferFormContent(data), func(h templates.HeaderData, s templates.SidebarData) templ.Component {
		return templates.OfferFormPage(data, h, s)
	})
}

// HandleOfferCreate starts a draft and renders an empty offer form with
// its editors in local mode.
func HandleOfferCreate(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		draft, err := d.Drafts.Create(e.Request.Context())
		if err != nil {
			zap.S().Errorf("offer_create: could not start draft: %v", err)
			return e.String(http.StatusServiceUnavailable, lineitems.UserMessage(err))
		}

		var f offerForm
		if active := GetActiveCustomer(e.Request); active != nil {
			f.Customer = active.ID
		}
		data := offerFormData(d, f)
		data.DraftToken = draft.Token
		data.Editors = draftEditors(d, draft)
		return renderOfferForm(e, data)
	}
}

func uploadedDocuments(e *core.RequestEvent) ([]*filesystem.File, error) {
	files, err := e.FindUploadedFiles("documents")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	return files, err
}

// HandleOfferSave validates the form and stores the offer, its documents
// and every draft group and item in one transaction. The draft is taken
// out of the registry for the duration of the save and restored when the
// save fails.
func HandleOfferSave(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		token := e.Request.FormValue("draft")
		draft, err := d.Drafts.Get(token)
		if err != nil {
			return ErrorToast(e, http.StatusGone, "This draft has expired. Please start a new offer.")
		}

		f := readOfferForm(e)
		if errs := f.validate(d.App); len(errs) > 0 {
			data := offerFormData(d, f)
			data.DraftToken = draft.Token
			data.Errors = errs
			data.Editors = draftEditors(d, draft)
			return renderOfferForm(e, data)
		}

		docs, err := uploadedDocuments(e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Could not read uploaded documents")
		}

		draft, err = d.Drafts.Take(token)
		if err != nil {
			return ErrorToast(e, http.StatusConflict, "This offer is already being saved.")
		}

		envs := draft.Summaries(lineitems.Environments)
		svcs := draft.Summaries(lineitems.ServiceSets)
		ctx := e.Request.Context()

		var offer *core.Record
		err = d.App.RunInTransaction(func(txApp core.App) error {
			rates, err := services.ServiceCostRates(txApp)
			if err != nil {
				return err
			}
			rev := services.CalcOfferRevenue(envs, svcs, rates)
			number, err := services.GenerateOfferNumber(txApp, time.Now())
			if err != nil {
				return err
			}
			col, err := txApp.FindCollectionByNameOrId("offers")
			if err != nil {
				return err
			}
			offer = core.NewRecord(col)
			f.apply(offer)
			offer.Set("offer_number", number)
			offer.Set("status", "draft")
			offer.Set("mrr", rev.MRR)
			offer.Set("tcv", rev.TCV)
			if len(docs) > 0 {
				offer.Set("documents", docs)
			}
			if err := txApp.Save(offer); err != nil {
				return err
			}

			store := lineitems.NewPocketBaseStore(txApp)
			if err := lineitems.Environments.InsertSummaries(ctx, store, offer.Id, envs); err != nil {
				return err
			}
			return lineitems.ServiceSets.InsertSummaries(ctx, store, offer.Id, svcs)
		})
		if err != nil {
			d.Drafts.Restore(draft)
			zap.S().Errorf("offer_save: could not save offer: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save offer. Your changes are still in the form.")
		}

		d.offerEvent("created")
		SetToast(e, "success", "Offer "+offer.GetString("offer_number")+" created")
		return redirect(e, "/offers/"+offer.Id)
	}
}

func formFromRecord(rec *core.Record) offerForm {
	f := offerForm{
		Title:       rec.GetString("title"),
		Customer:    rec.GetString("customer"),
		Opportunity: rec.GetString("opportunity"),
		Partner:     rec.GetString("partner"),
		Notes:       rec.GetString("notes"),
	}
	if dt := rec.GetDateTime("valid_until"); !dt.IsZero() {
		f.ValidUntil = dt.Time().Format(time.DateOnly)
	}
	return f
}

func savedOfferForm(e *core.RequestEvent, d *Deps, offer *core.Record, f offerForm) (templates.OfferFormData, error) {
	data := offerFormData(d, f)
	data.ID = offer.Id
	data.OfferNumber = offer.GetString("offer_number")
	data.Documents = offer.GetStringSlice("documents")
	editors, err := offerEditors(e.Request.Context(), d, offer, false)
	if err != nil {
		return data, err
	}
	data.Editors = editors
	return data, nil
}

// HandleOfferEdit renders the form of a saved offer; its editors write
// through to the database.
func HandleOfferEdit(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		offer, err := d.App.FindRecordById("offers", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Offer not found")
		}
		if services.OfferReadOnly(offer.GetString("status")) {
			SetToast(e, "warning", "This offer can no longer be edited")
			return redirect(e, "/offers/"+offer.Id)
		}
		data, err := savedOfferForm(e, d, offer, formFromRecord(offer))
		if err != nil {
			zap.S().Errorf("offer_edit: could not load editors of %s: %v", offer.Id, err)
			return e.String(http.StatusServiceUnavailable, lineitems.UserMessage(err))
		}
		return renderOfferForm(e, data)
	}
}

// HandleOfferUpdate saves the header fields of an offer and appends newly
// uploaded documents. Line items are saved by their editors as they change.
func HandleOfferUpdate(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		offer, err := d.App.FindRecordById("offers", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Offer not found")
		}
		if services.OfferReadOnly(offer.GetString("status")) {
			return ErrorToast(e, http.StatusForbidden, "This offer can no longer be edited")
		}
		if err := e.Request.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}

		f := readOfferForm(e)
		if errs := f.validate(d.App); len(errs) > 0 {
			data, err := savedOfferForm(e, d, offer, f)
			if err != nil {
				zap.S().Errorf("offer_update: could not load editors of %s: %v", offer.Id, err)
			}
			data.Errors = errs
			return renderOfferForm(e, data)
		}

		docs, err := uploadedDocuments(e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Could not read uploaded documents")
		}
		f.apply(offer)
		if len(docs) > 0 {
			offer.Set("documents+", docs)
		}
		if err := d.App.Save(offer); err != nil {
			zap.S().Errorf("offer_update: could not save %s: %v", offer.Id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save offer")
		}

		d.offerEvent("saved")
		SetToast(e, "success", "Offer "+offer.GetString("offer_number")+" saved")
		return redirect(e, "/offers/"+offer.Id)
	}
}
