package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offerdesk/drafts"
	"offerdesk/lineitems"
	"offerdesk/templates"
	"offerdesk/testhelpers"
)

func TestHandleOfferSave_PersistsDraftLines(t *testing.T) {
	d := newTestDeps(t)
	draft := newDraft(t, d)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	ctx := context.Background()

	env := draft.Editor(lineitems.Environments)
	g, err := env.AddGroup(ctx)
	require.NoError(t, err)
	_, err = env.AddItem(ctx, g.ID, lineitems.ItemInput{Selection: lineitems.Selection{"App Server", "Shared", "Small"}, Quantity: 3})
	require.NoError(t, err)

	svc := draft.Editor(lineitems.ServiceSets)
	sg, err := svc.AddGroup(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, sg.ID, lineitems.ItemInput{Selection: lineitems.Selection{"Training"}, Quantity: 2, Markup: 10})
	require.NoError(t, err)

	form := url.Values{
		"draft":       {draft.Token},
		"title":       {"Hosting 2026"},
		"customer":    {cust.Id},
		"valid_until": {"2026-12-31"},
	}
	rec := serve(t, d, HandleOfferSave(d), formRequest(http.MethodPost, "/offers", strings.NewReader(form.Encode()), true))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	offers, err := d.App.FindRecordsByFilter("offers", matchAll, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	offer := offers[0]
	testhelpers.AssertHXRedirect(t, rec.Header().Get("HX-Redirect"), "/offers/"+offer.Id)
	assert.Equal(t, "draft", offer.GetString("status"))
	assert.True(t, strings.HasPrefix(offer.GetString("offer_number"), "OFF-"))
	assert.Equal(t, 300.0, offer.GetFloat("mrr"))

	envs, err := d.App.FindRecordsByFilter("environments", "offer = {:offer}", "", 0, 0, map[string]any{"offer": offer.Id})
	require.NoError(t, err)
	require.Len(t, envs, 1)
	comps, err := d.App.FindRecordsByFilter("environment_components", "environment = {:env}", "", 0, 0, map[string]any{"env": envs[0].Id})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, 3.0, comps[0].GetFloat("quantity"))

	n, err := d.App.CountRecords("service_set_services")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = d.Drafts.Get(draft.Token)
	assert.ErrorIs(t, err, drafts.ErrNotFound)
}

func TestHandleOfferSave_InvalidFormKeepsDraft(t *testing.T) {
	d := newTestDeps(t)
	draft := newDraft(t, d)

	form := url.Values{"draft": {draft.Token}, "valid_until": {"31/12/2026"}}
	rec := serve(t, d, HandleOfferSave(d), formRequest(http.MethodPost, "/offers", strings.NewReader(form.Encode()), true))

	require.Equal(t, http.StatusOK, rec.Code)
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "Title is required", "Customer is required", "YYYY-MM-DD")
	n, err := d.App.CountRecords("offers")
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = d.Drafts.Get(draft.Token)
	assert.NoError(t, err)
}

func TestHandleOfferSave_DoubleSubmitCreatesOneOffer(t *testing.T) {
	d := newTestDeps(t)
	draft := newDraft(t, d)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	form := url.Values{"draft": {draft.Token}, "title": {"Hosting"}, "customer": {cust.Id}}.Encode()

	const submits = 4
	codes := make(chan int, submits)
	var wg sync.WaitGroup
	for range submits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(d.App, formRequest(http.MethodPost, "/offers", strings.NewReader(form), true), rec)
			if err := HandleOfferSave(d)(e); err != nil {
				codes <- http.StatusInternalServerError
				return
			}
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	ok := 0
	for code := range codes {
		if code == http.StatusOK {
			ok++
			continue
		}
		assert.Contains(t, []int{http.StatusConflict, http.StatusGone}, code)
	}
	assert.Equal(t, 1, ok)
	n, err := d.App.CountRecords("offers")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = d.Drafts.Get(draft.Token)
	assert.ErrorIs(t, err, drafts.ErrNotFound)
}

func TestHandleOfferSave_ExpiredDraft(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")

	form := url.Values{"draft": {"gone"}, "title": {"X"}, "customer": {cust.Id}}
	rec := serve(t, d, HandleOfferSave(d), formRequest(http.MethodPost, "/offers", strings.NewReader(form.Encode()), true))

	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestHandleOfferSave_OpportunityOfAnotherCustomer(t *testing.T) {
	d := newTestDeps(t)
	draft := newDraft(t, d)
	a := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	b := testhelpers.CreateTestCustomer(t, d.App, "Contoso")

	col, err := d.App.FindCollectionByNameOrId("opportunities")
	require.NoError(t, err)
	opp := core.NewRecord(col)
	opp.Set("title", "Renewal")
	opp.Set("customer", b.Id)
	opp.Set("stage", "lead")
	require.NoError(t, d.App.Save(opp))

	form := url.Values{"draft": {draft.Token}, "title": {"X"}, "customer": {a.Id}, "opportunity": {opp.Id}}
	rec := serve(t, d, HandleOfferSave(d), formRequest(http.MethodPost, "/offers", strings.NewReader(form.Encode()), true))

	testhelpers.AssertHTMLContains(t, rec.Body.String(), "belongs to another customer")
}

func TestHandleOfferList_ScopedToActiveCustomer(t *testing.T) {
	d := newTestDeps(t)
	a := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	b := testhelpers.CreateTestCustomer(t, d.App, "Contoso")
	testhelpers.CreateTestOffer(t, d.App, a.Id, "OFF-26-0001", "draft")
	testhelpers.CreateTestOffer(t, d.App, b.Id, "OFF-26-0002", "sent")

	req := newRequestWithCustomer("/offers", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(t, d, HandleOfferList(d), req)
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "OFF-26-0001", "OFF-26-0002", "Northwind", "Contoso")

	req = newRequestWithCustomer("/offers", &templates.ActiveCustomer{ID: a.Id, Name: "Northwind"})
	req.Header.Set("HX-Request", "true")
	rec = serve(t, d, HandleOfferList(d), req)
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "OFF-26-0001")
	testhelpers.AssertHTMLNotContains(t, rec.Body.String(), "OFF-26-0002")
}

func TestHandleOfferList_SearchByCustomerName(t *testing.T) {
	d := newTestDeps(t)
	a := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	b := testhelpers.CreateTestCustomer(t, d.App, "Contoso")
	testhelpers.CreateTestOffer(t, d.App, a.Id, "OFF-26-0001", "draft")
	testhelpers.CreateTestOffer(t, d.App, b.Id, "OFF-26-0002", "draft")

	req := httptest.NewRequest(http.MethodGet, "/offers?search=contoso", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(t, d, HandleOfferList(d), req)

	testhelpers.AssertHTMLContains(t, rec.Body.String(), "OFF-26-0002")
	testhelpers.AssertHTMLNotContains(t, rec.Body.String(), "OFF-26-0001")
}

func statusRequest(offerID, status string) *http.Request {
	req := formRequest(http.MethodPost, "/offers/"+offerID+"/status", strings.NewReader(url.Values{"status": {status}}.Encode()), true)
	req.SetPathValue("id", offerID)
	return req
}

func TestHandleOfferStatus(t *testing.T) {
	tests := []struct {
		from, to string
		wantCode int
		want     string
	}{
		{"draft", "sent", http.StatusOK, "sent"},
		{"sent", "accepted", http.StatusOK, "accepted"},
		{"sent", "draft", http.StatusOK, "draft"},
		{"draft", "accepted", http.StatusUnprocessableEntity, "draft"},
		{"accepted", "draft", http.StatusUnprocessableEntity, "accepted"},
		{"draft", "bogus", http.StatusUnprocessableEntity, "draft"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			d := newTestDeps(t)
			cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
			offer := testhelpers.CreateTestOffer(t, d.App, cust.Id, "OFF-26-0001", tt.from)

			rec := serve(t, d, HandleOfferStatus(d), statusRequest(offer.Id, tt.to))

			assert.Equal(t, tt.wantCode, rec.Code)
			saved, err := d.App.FindRecordById("offers", offer.Id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, saved.GetString("status"))
		})
	}
}

func contractRequest(offerID string) *http.Request {
	req := formRequest(http.MethodPost, "/offers/"+offerID+"/contract", strings.NewReader(""), true)
	req.SetPathValue("id", offerID)
	return req
}

func TestHandleOfferContract(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	offer := testhelpers.CreateTestOffer(t, d.App, cust.Id, "OFF-26-0001", "accepted")
	env := testhelpers.CreateTestEnvironment(t, d.App, offer.Id, "Production", 24)
	testhelpers.CreateTestComponent(t, d.App, env.Id, 2)

	rec := serve(t, d, HandleOfferContract(d), contractRequest(offer.Id))
	require.Equal(t, http.StatusOK, rec.Code)

	contract := findContract(d.App, offer.Id)
	require.NotNil(t, contract)
	testhelpers.AssertHXRedirect(t, rec.Header().Get("HX-Redirect"), "/contracts/"+contract.Id+"/edit")
	assert.True(t, strings.HasPrefix(contract.GetString("contract_number"), "CTR-"))
	assert.Equal(t, "active", contract.GetString("status"))
	assert.Equal(t, cust.Id, contract.GetString("customer"))
	assert.Equal(t, 200.0, contract.GetFloat("mrr"))
	assert.Equal(t, 4800.0, contract.GetFloat("tcv"))

	start := contract.GetDateTime("start_date").Time()
	end := contract.GetDateTime("end_date").Time()
	assert.Equal(t, start.AddDate(0, 24, 0), end)

	rec = serve(t, d, HandleOfferContract(d), contractRequest(offer.Id))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleOfferContract_RequiresAccepted(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	offer := testhelpers.CreateTestOffer(t, d.App, cust.Id, "OFF-26-0001", "sent")

	rec := serve(t, d, HandleOfferContract(d), contractRequest(offer.Id))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Nil(t, findContract(d.App, offer.Id))
}

func TestHandleOfferDelete_CascadesLines(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	offer := testhelpers.CreateTestOffer(t, d.App, cust.Id, "OFF-26-0001", "draft")
	env := testhelpers.CreateTestEnvironment(t, d.App, offer.Id, "Production", 12)
	testhelpers.CreateTestComponent(t, d.App, env.Id, 1)

	req := formRequest(http.MethodDelete, "/offers/"+offer.Id, strings.NewReader(""), true)
	req.SetPathValue("id", offer.Id)
	rec := serve(t, d, HandleOfferDelete(d), req)

	testhelpers.AssertHXRedirect(t, rec.Header().Get("HX-Redirect"), "/offers")
	for _, coll := range []string{"offers", "environments", "environment_components"} {
		n, err := d.App.CountRecords(coll)
		require.NoError(t, err)
		assert.Zero(t, n, coll)
	}
}

func TestHandleOfferView_ShowsRevenueReadOnly(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	offer := testhelpers.CreateTestOffer(t, d.App, cust.Id, "OFF-26-0001", "sent")
	env := testhelpers.CreateTestEnvironment(t, d.App, offer.Id, "Production", 12)
	testhelpers.CreateTestComponent(t, d.App, env.Id, 2)

	req := httptest.NewRequest(http.MethodGet, "/offers/"+offer.Id, nil)
	req.Header.Set("HX-Request", "true")
	req.SetPathValue("id", offer.Id)
	rec := serve(t, d, HandleOfferView(d), req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, "OFF-26-0001", "Northwind", "€200", "€2,400")
	testhelpers.AssertHTMLNotContains(t, body, "Add environment")
}

func TestHandleOfferExport(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	offer := testhelpers.CreateTestOffer(t, d.App, cust.Id, "OFF-26-0001", "draft")
	env := testhelpers.CreateTestEnvironment(t, d.App, offer.Id, "Production", 12)
	testhelpers.CreateTestComponent(t, d.App, env.Id, 1)

	req := httptest.NewRequest(http.MethodGet, "/offers/"+offer.Id+"/export/pdf", nil)
	req.SetPathValue("id", offer.Id)
	rec := serve(t, d, HandleOfferExportPDF(d), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdfContentType, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	req = httptest.NewRequest(http.MethodGet, "/offers/"+offer.Id+"/export/excel", nil)
	req.SetPathValue("id", offer.Id)
	rec = serve(t, d, HandleOfferExportExcel(d), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "OFF-26-0001")
}
