package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gridframe/gridframe/pkg/frame"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	catalog, err := NewCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func meterDef(t *testing.T) *frame.Def {
	t.Helper()

	def, err := frame.NewDef(
		frame.InputColumn("power", "float"),
		frame.InputColumn("customer_id", "UInt64"),
		frame.ResultColumn("energy", "float"),
	)
	if err != nil {
		t.Fatalf("failed to build definition: %v", err)
	}
	return def
}

func TestCatalog_SaveAndGetTemplate(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	def := meterDef(t)
	if err := catalog.SaveTemplate(ctx, "meter", def); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}

	tmpl, err := catalog.GetTemplate(ctx, "meter")
	if err != nil {
		t.Fatalf("failed to get template: %v", err)
	}

	if tmpl.Name != "meter" {
		t.Errorf("name mismatch: got %s, want meter", tmpl.Name)
	}
	if tmpl.Fingerprint == 0 {
		t.Error("expected non-zero fingerprint")
	}
	if tmpl.CreatedAt.IsZero() || tmpl.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got := tmpl.Def.Records()
	want := def.Records()
	if len(got) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d mismatch: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCatalog_SaveUnchangedIsNoOp(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	def := meterDef(t)
	if err := catalog.SaveTemplate(ctx, "meter", def); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}

	// Pin updated_at so a rewrite would be visible regardless of clock
	// resolution.
	if _, err := catalog.db.Exec("UPDATE templates SET updated_at = 12345 WHERE name = 'meter'"); err != nil {
		t.Fatalf("failed to pin updated_at: %v", err)
	}

	if err := catalog.SaveTemplate(ctx, "meter", def); err != nil {
		t.Fatalf("failed to re-save template: %v", err)
	}

	tmpl, err := catalog.GetTemplate(ctx, "meter")
	if err != nil {
		t.Fatalf("failed to get template: %v", err)
	}
	if tmpl.UpdatedAt.Unix() != 12345 {
		t.Errorf("expected unchanged save to skip the write, updated_at moved to %d", tmpl.UpdatedAt.Unix())
	}
}

func TestCatalog_SaveChangedUpdatesDefinition(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	def := meterDef(t)
	if err := catalog.SaveTemplate(ctx, "meter", def); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}

	first, err := catalog.GetTemplate(ctx, "meter")
	if err != nil {
		t.Fatalf("failed to get template: %v", err)
	}

	if err := def.AddColumn("site", "str", true); err != nil {
		t.Fatalf("failed to add column: %v", err)
	}
	if err := catalog.SaveTemplate(ctx, "meter", def); err != nil {
		t.Fatalf("failed to save changed template: %v", err)
	}

	second, err := catalog.GetTemplate(ctx, "meter")
	if err != nil {
		t.Fatalf("failed to get changed template: %v", err)
	}

	if second.Fingerprint == first.Fingerprint {
		t.Error("expected fingerprint to change with the definition")
	}
	if second.ID != first.ID {
		t.Errorf("expected the row to be updated in place, id changed from %d to %d", first.ID, second.ID)
	}
	if second.Def.Column("site") == nil {
		t.Error("expected reloaded definition to contain the added column")
	}
}

func TestCatalog_GetMissing(t *testing.T) {
	catalog := newTestCatalog(t)

	_, err := catalog.GetTemplate(context.Background(), "absent")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestCatalog_ListTemplates(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	def := meterDef(t)
	for _, name := range []string{"voltage", "meter", "current"} {
		if err := catalog.SaveTemplate(ctx, name, def); err != nil {
			t.Fatalf("failed to save template %s: %v", name, err)
		}
	}

	templates, err := catalog.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}

	want := []string{"current", "meter", "voltage"}
	if len(templates) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(templates))
	}
	for i, name := range want {
		if templates[i].Name != name {
			t.Errorf("template %d: got %s, want %s", i, templates[i].Name, name)
		}
	}
}

func TestCatalog_DeleteTemplate(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	if err := catalog.SaveTemplate(ctx, "meter", meterDef(t)); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}

	if err := catalog.DeleteTemplate(ctx, "meter"); err != nil {
		t.Fatalf("failed to delete template: %v", err)
	}

	if _, err := catalog.GetTemplate(ctx, "meter"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound after delete, got %v", err)
	}

	if err := catalog.DeleteTemplate(ctx, "meter"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound for second delete, got %v", err)
	}
}

func TestCatalog_SaveValidation(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	if err := catalog.SaveTemplate(ctx, "", meterDef(t)); err == nil {
		t.Error("expected error for empty template name")
	}
	if err := catalog.SaveTemplate(ctx, "meter", nil); err == nil {
		t.Error("expected error for nil definition")
	}
}

// A stored definition is rebuilt column by column on the way out, so a row
// written by a broken producer surfaces the same tagged errors as direct
// construction.
func TestCatalog_CorruptStoredDefinition(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	doc := `[{"name":"power","dtype_str":"float","is_input":true},` +
		`{"name":"power","dtype_str":"float","is_input":true}]`
	_, err := catalog.db.Exec(
		"INSERT INTO templates (name, definition, fingerprint, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		"broken", doc, 1, 1, 1,
	)
	if err != nil {
		t.Fatalf("failed to insert corrupt row: %v", err)
	}

	_, err = catalog.GetTemplate(ctx, "broken")
	if !errors.Is(err, frame.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName from corrupt definition, got %v", err)
	}
}
