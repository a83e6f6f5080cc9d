package employeeform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/collection"
	"hrconsole/internal/domain/refdata"
	"hrconsole/internal/hrapi"
)

func editRecord() *hrapi.EmployeeRecord {
	return &hrapi.EmployeeRecord{
		Employee: hrapi.Employee{
			ID:            "9",
			FirstName:     "Ada",
			LastName:      "Lovelace",
			Phone:         "5550100200",
			EmployeeCode:  "EMP-9",
			Country:       "Atlantis",
			State:         "Poseidonia",
			City:          "Old Town",
			DepartmentID:  "1",
			DesignationID: "10",
			JoiningDate:   "2020-02-01",
			IsActive:      true,
		},
		Documents: []hrapi.Document{
			{ID: "100", DocumentType: "passport", Country: "India", Images: []hrapi.Image{{ImageID: "7", URL: "/files/7.png"}}},
			{ID: "101", DocumentType: "visa", Country: "US"},
		},
		Experiences: []hrapi.Experience{
			{ID: "e1", CompanyName: "Acme", JobTitle: "Developer", StartDate: "2018-01-01", EndDate: "2019-12-31"},
		},
	}
}

func TestNewStartsWithOneDocumentAndExperience(t *testing.T) {
	f := newHarness().newForm(t)
	v := f.View()

	assert.Equal(t, ModeCreate, v.Mode)
	assert.Len(t, v.Documents, 1)
	assert.Len(t, v.Experiences, 1)
	assert.False(t, v.CanRemoveDocument)
	assert.Len(t, v.Lists[refdata.KindDepartment].Items, 2)
	assert.Empty(t, v.Lists[refdata.KindDesignation].Items)
	assert.True(t, v.Employment.IsActive)
}

func TestDepartmentChangeClearsDesignation(t *testing.T) {
	ctx := context.Background()
	f := newHarness().newForm(t)

	require.NoError(t, f.SelectDepartment(ctx, "1"))
	require.NoError(t, f.SelectDesignation("10"))
	assert.Equal(t, "10", f.View().Employment.Org.DesignationID)

	require.NoError(t, f.SelectDepartment(ctx, "2"))
	v := f.View()
	assert.Empty(t, v.Employment.Org.DesignationID)
	assert.Equal(t, "2", v.Lists[refdata.KindDesignation].ParentID)

	assert.ErrorIs(t, f.SelectDesignation("10"), refdata.ErrUnknownReference)
	require.NoError(t, f.SelectDesignation("20"))
	assert.ErrorIs(t, f.SelectDepartment(ctx, "99"), refdata.ErrUnknownReference)
}

func TestLocationCascade(t *testing.T) {
	ctx := context.Background()
	f := newHarness().newForm(t)

	require.NoError(t, f.SelectLocation(ctx, refdata.KindCountry, refdata.Reference("IN")))
	require.NoError(t, f.SelectLocation(ctx, refdata.KindState, refdata.Reference("KA")))
	require.NoError(t, f.SelectLocation(ctx, refdata.KindCity, refdata.Reference("BLR")))
	assert.Len(t, f.View().Lists[refdata.KindCity].Items, 1)

	require.NoError(t, f.SelectLocation(ctx, refdata.KindCountry, refdata.Manual("Atlantis")))
	v := f.View()
	assert.Equal(t, refdata.Manual(""), v.Personal.Location.State)
	assert.Equal(t, refdata.Manual(""), v.Personal.Location.City)
	assert.Empty(t, v.Lists[refdata.KindState].Items)

	assert.Error(t, f.SelectLocation(ctx, refdata.KindState, refdata.Reference("KA")))
	require.NoError(t, f.SelectLocation(ctx, refdata.KindState, refdata.Manual("Poseidonia")))

	require.NoError(t, f.SelectLocation(ctx, refdata.KindCountry, refdata.Reference("US")))
	v = f.View()
	assert.Equal(t, refdata.Reference(""), v.Personal.Location.State)
	assert.Empty(t, v.Personal.Location.Country.Text)
	assert.Equal(t, []refdata.Item{{ID: "CA", Name: "California", ParentID: "US"}}, v.Lists[refdata.KindState].Items)

	assert.ErrorIs(t, f.SelectLocation(ctx, refdata.Kind("planet"), refdata.Manual("x")), ErrUnknownPart)
}

func TestLoadInfersManualLocation(t *testing.T) {
	h := newHarness()
	h.gateway.record = editRecord()
	f, err := Load(context.Background(), h.deps, h.session, "9")
	require.NoError(t, err)
	t.Cleanup(f.Close)

	v := f.View()
	assert.Equal(t, ModeEdit, v.Mode)
	assert.Equal(t, "9", v.EmployeeID)
	assert.Equal(t, refdata.Manual("Atlantis"), v.Personal.Location.Country)
	assert.Equal(t, refdata.Manual("Poseidonia"), v.Personal.Location.State)
	assert.Equal(t, refdata.Manual("Old Town"), v.Personal.Location.City)
	assert.Equal(t, "10", v.Employment.Org.DesignationID)

	require.Len(t, v.Documents, 2)
	assert.Equal(t, "100", v.Documents[0].Key)
	assert.Equal(t, refdata.Reference("IN"), v.Documents[0].Document.Country)
	assert.Equal(t, []attachments.Preview{{Kind: attachments.KindExisting, ImageID: "7", URL: "/files/7.png"}}, v.Documents[0].Previews)
	assert.Equal(t, refdata.Reference("US"), v.Documents[1].Document.Country)
	require.Len(t, v.Experiences, 1)
	assert.True(t, v.Experiences[0].Required)
}

func TestLoadFailsWithoutRecord(t *testing.T) {
	h := newHarness()
	_, err := Load(context.Background(), h.deps, h.session, "404")
	assert.Error(t, err)
}

func TestRemoveNewItemRecordsNothing(t *testing.T) {
	f := newHarness().newForm(t)
	key, err := f.AddDocument()
	require.NoError(t, err)
	assert.True(t, f.CanRemoveDocument())

	require.NoError(t, f.RemoveDocument(key))
	exp := f.View().Experiences[0].Key
	require.NoError(t, f.RemoveExperience(exp))

	v := f.View()
	assert.Len(t, v.Documents, 1)
	assert.Empty(t, v.Experiences)
	assert.Empty(t, v.Deleted.Documents)
	assert.Empty(t, v.Deleted.Experiences)
}

func TestRemoveLastDocumentIsRefused(t *testing.T) {
	f := newHarness().newForm(t)
	key := f.View().Documents[0].Key
	assert.ErrorIs(t, f.RemoveDocument(key), collection.ErrMinimumItems)
	assert.Len(t, f.View().Documents, 1)
}

func TestEditRemoveServerDocument(t *testing.T) {
	h := newHarness()
	h.gateway.record = editRecord()
	f, err := Load(context.Background(), h.deps, h.session, "9")
	require.NoError(t, err)
	t.Cleanup(f.Close)

	before := f.View().Documents[1]
	require.NoError(t, f.RemoveDocument("100"))
	assert.ErrorIs(t, f.RemoveDocument("100"), collection.ErrNotFound)

	v := f.View()
	assert.Equal(t, []string{"100"}, v.Deleted.Documents)
	assert.Empty(t, v.Deleted.Images, "a deleted document takes its images with it")
	require.Len(t, v.Documents, 1)
	assert.Equal(t, before, v.Documents[0])

	require.NoError(t, f.RemoveExperience("e1"))
	assert.Equal(t, []string{"e1"}, f.View().Deleted.Experiences)
}

func TestThreeDocumentsAttachAndDetach(t *testing.T) {
	f := newHarness().newForm(t)
	_, err := f.AddDocument()
	require.NoError(t, err)
	_, err = f.AddDocument()
	require.NoError(t, err)
	keys := []string{}
	for _, d := range f.View().Documents {
		keys = append(keys, d.Key)
	}
	require.Len(t, keys, 3)

	handles, err := f.AttachFiles(keys[1], []attachments.File{stage(t, f, "front.png", pngBytes), stage(t, f, "back.pdf", pdfBytes)})
	require.NoError(t, err)
	require.Len(t, handles, 2)

	require.NoError(t, f.DetachPreview(keys[1], 0))

	v := f.View()
	require.Len(t, v.Documents[1].Previews, 1)
	assert.Equal(t, "back.pdf", v.Documents[1].Previews[0].Name)
	assert.Empty(t, v.Documents[0].Previews)
	assert.Empty(t, v.Documents[2].Previews)
	assert.Empty(t, v.Deleted.Images)

	_, ok := f.Preview(handles[0])
	assert.False(t, ok)
	file, ok := f.Preview(handles[1])
	require.True(t, ok)
	assert.Equal(t, attachments.FormatPDF, file.Format)
}

func TestDetachExistingImageSchedulesDeletion(t *testing.T) {
	h := newHarness()
	h.gateway.record = editRecord()
	f, err := Load(context.Background(), h.deps, h.session, "9")
	require.NoError(t, err)
	t.Cleanup(f.Close)

	_, err = f.AttachFiles("100", []attachments.File{stage(t, f, "scan.png", pngBytes)})
	require.NoError(t, err)
	require.NoError(t, f.DetachPreview("100", 0))

	v := f.View()
	assert.Equal(t, []string{"7"}, v.Deleted.Images)
	require.Len(t, v.Documents[0].Previews, 1)
	assert.Equal(t, attachments.KindNew, v.Documents[0].Previews[0].Kind)
}

func TestCopyDocumentResetsAttachments(t *testing.T) {
	f := newHarness().newForm(t)
	src := f.View().Documents[0].Key
	require.NoError(t, f.UpdateDocument(src, DocumentPatch{DocumentType: ptr("passport"), Country: &refdata.Value{Mode: refdata.ModeReference, ID: "IN"}}))
	_, err := f.AttachFiles(src, []attachments.File{stage(t, f, "a.png", pngBytes)})
	require.NoError(t, err)

	copied, err := f.CopyDocument(src)
	require.NoError(t, err)

	v := f.View()
	require.Len(t, v.Documents, 2)
	assert.Equal(t, copied, v.Documents[1].Key)
	assert.Equal(t, "passport", v.Documents[1].Document.DocumentType)
	assert.Empty(t, v.Documents[1].Previews)
	assert.Len(t, v.Documents[0].Previews, 1)

	bad := refdata.Reference("ZZ")
	assert.ErrorIs(t, f.UpdateDocument(src, DocumentPatch{Country: &bad}), refdata.ErrUnknownReference)
}

func TestCreateReferenceSelectsNewValue(t *testing.T) {
	ctx := context.Background()
	f := newHarness().newForm(t)
	require.NoError(t, f.SelectDepartment(ctx, "1"))

	created, err := f.CreateReference(ctx, refdata.KindDesignation, "Architect")
	require.NoError(t, err)

	v := f.View()
	assert.Equal(t, created.ID, v.Employment.Org.DesignationID)
	assert.True(t, v.Lists[refdata.KindDesignation].Contains(created.ID))

	created, err = f.CreateReference(ctx, refdata.KindRole, "Lead")
	require.NoError(t, err)
	assert.Equal(t, created.ID, f.View().Employment.RoleID)

	_, err = f.CreateReference(ctx, refdata.KindCity, "Nowhere")
	assert.ErrorIs(t, err, refdata.ErrNotCreatable)
}

func TestSelectReferenceTargets(t *testing.T) {
	f := newHarness().newForm(t)
	require.NoError(t, f.SelectReference(refdata.KindEmploymentType, "ft"))
	require.NoError(t, f.SelectReference(refdata.KindManager, "m1"))
	assert.ErrorIs(t, f.SelectReference(refdata.KindRole, "nope"), refdata.ErrUnknownReference)
	assert.ErrorIs(t, f.SelectReference(refdata.KindCountry, "IN"), ErrNotSelectable)

	v := f.View()
	assert.Equal(t, "ft", v.Employment.EmploymentTypeID)
	assert.Equal(t, "m1", v.Employment.ReportingManagerID)
}

func TestSetFieldNormalises(t *testing.T) {
	f := newHarness().newForm(t)

	got, err := f.SetField("bank_account_number", "1234 5678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", got)

	got, err = f.SetField("gender", " Female ")
	require.NoError(t, err)
	assert.Equal(t, "female", got)

	got, err = f.SetField("is_active", "false")
	require.NoError(t, err)
	assert.Equal(t, "false", got)
	assert.False(t, f.View().Employment.IsActive)

	_, err = f.SetField("salary", "1")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = f.SetField("is_active", "maybe")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestCloseReleasesHandles(t *testing.T) {
	h := newHarness()
	f, err := New(context.Background(), h.deps, h.session)
	require.NoError(t, err)
	key := f.View().Documents[0].Key
	handles, err := f.AttachFiles(key, []attachments.File{stage(t, f, "a.png", pngBytes)})
	require.NoError(t, err)

	f.Close()
	f.Close()
	_, ok := f.Preview(handles[0])
	assert.False(t, ok)
	_, err = f.AddDocument()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestResetStartsFreshDraft(t *testing.T) {
	h := newHarness()
	h.gateway.record = editRecord()
	f, err := Load(context.Background(), h.deps, h.session, "9")
	require.NoError(t, err)
	t.Cleanup(f.Close)
	require.NoError(t, f.RemoveDocument("100"))

	require.NoError(t, f.Reset(context.Background()))
	v := f.View()
	assert.Equal(t, ModeCreate, v.Mode)
	assert.Empty(t, v.EmployeeID)
	assert.Empty(t, v.Deleted.Documents)
	assert.Len(t, v.Documents, 1)
	assert.Empty(t, v.Personal.FirstName)
}
