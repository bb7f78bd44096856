package tools

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/localrivet/notionmcp/internal/errortypes"
)

// validatable is implemented by every tool request type.
type validatable interface {
	Validate() error
}

func assertValidationError(t *testing.T, err error, wantField string) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected a validation error, got nil")
	}
	if !errortypes.IsValidationError(err) {
		t.Fatalf("Expected validation error, got type %q", errortypes.TypeOf(err))
	}
	var appErr *errortypes.AppError
	if !errors.As(err, &appErr) {
		t.Fatal("Expected an AppError")
	}
	if appErr.Fields["field"] != wantField {
		t.Errorf("Expected offending field %q, got %v", wantField, appErr.Fields["field"])
	}
}

func TestMissingRequiredFields(t *testing.T) {
	archived := true

	tests := []struct {
		name      string
		req       validatable
		wantField string
	}{
		{ToolQueryDatabase, &QueryDatabaseRequest{}, "database_id"},
		{ToolCreateDatabase, &CreateDatabaseRequest{Title: "T", Properties: json.RawMessage(`{}`)}, "parent_id"},
		{ToolCreateDatabase + "/title", &CreateDatabaseRequest{ParentID: "p", Properties: json.RawMessage(`{}`)}, "title"},
		{ToolCreateDatabase + "/properties", &CreateDatabaseRequest{ParentID: "p", Title: "T"}, "properties"},
		{ToolUpdateDatabase, &UpdateDatabaseRequest{Title: "T"}, "database_id"},
		{ToolCreatePage, &CreatePageRequest{Properties: json.RawMessage(`{}`)}, "database_id"},
		{ToolCreatePage + "/properties", &CreatePageRequest{DatabaseID: "d"}, "properties"},
		{ToolUpdatePage, &UpdatePageRequest{Archived: &archived}, "page_id"},
		{ToolGetPage, &GetPageRequest{}, "page_id"},
		{ToolGetPageContent, &GetPageContentRequest{}, "page_id"},
		{ToolAppendPageContent, &AppendPageContentRequest{Children: json.RawMessage(`[{}]`)}, "block_id"},
		{ToolAppendPageContent + "/children", &AppendPageContentRequest{BlockID: "b"}, "children"},
		{ToolGetBlock, &GetBlockRequest{}, "block_id"},
		{ToolUpdateBlock, &UpdateBlockRequest{Archived: &archived}, "block_id"},
		{ToolSearch, &SearchRequest{}, "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValidationError(t, tt.req.Validate(), tt.wantField)
		})
	}
}

func TestValidRequestsPass(t *testing.T) {
	archived := false

	tests := []struct {
		name string
		req  validatable
	}{
		{ToolListDatabases, &ListDatabasesRequest{}},
		{ToolListDatabases + "/cursor", &ListDatabasesRequest{Cursor: "opaque-token"}},
		{ToolQueryDatabase, &QueryDatabaseRequest{DatabaseID: "abc"}},
		{ToolQueryDatabase + "/full", &QueryDatabaseRequest{
			DatabaseID: "abc",
			Filter:     json.RawMessage(`{"property":"Done","checkbox":{"equals":true}}`),
			Sorts:      json.RawMessage(`[{"property":"Name","direction":"ascending"}]`),
			PageSize:   10,
			Cursor:     "tok",
		}},
		{ToolCreateDatabase, &CreateDatabaseRequest{
			ParentID:   "p",
			Title:      "Tasks",
			Properties: json.RawMessage(`{"Name":{"title":{}}}`),
		}},
		{ToolUpdateDatabase, &UpdateDatabaseRequest{DatabaseID: "d"}},
		{ToolCreatePage, &CreatePageRequest{DatabaseID: "d", Properties: json.RawMessage(`{}`)}},
		{ToolUpdatePage + "/archive-only", &UpdatePageRequest{PageID: "p", Archived: &archived}},
		{ToolUpdatePage + "/properties-only", &UpdatePageRequest{PageID: "p", Properties: json.RawMessage(`{}`)}},
		{ToolGetPage, &GetPageRequest{PageID: "p"}},
		{ToolGetPageContent, &GetPageContentRequest{PageID: "p", Cursor: "tok"}},
		{ToolAppendPageContent, &AppendPageContentRequest{BlockID: "b", Children: json.RawMessage(`[{"type":"paragraph"}]`)}},
		{ToolGetBlock, &GetBlockRequest{BlockID: "b"}},
		{ToolUpdateBlock + "/archive-only", &UpdateBlockRequest{BlockID: "b", Archived: &archived}},
		{ToolUpdateBlock + "/content", &UpdateBlockRequest{
			BlockID:   "b",
			BlockType: "paragraph",
			Content:   json.RawMessage(`{"rich_text":[]}`),
		}},
		{ToolSearch, &SearchRequest{Query: "meeting notes"}},
		{ToolSearch + "/filtered", &SearchRequest{Query: "q", FilterType: FilterPage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err != nil {
				t.Errorf("Expected request to validate, got %v", err)
			}
		})
	}
}

func TestUpdatePageRequiresSomethingToUpdate(t *testing.T) {
	req := &UpdatePageRequest{PageID: "p"}
	err := req.Validate()
	if !errortypes.IsValidationError(err) {
		t.Fatalf("Expected validation error when neither properties nor archived is set, got %v", err)
	}
}

func TestUpdateBlockContentRequiresType(t *testing.T) {
	req := &UpdateBlockRequest{BlockID: "b", Content: json.RawMessage(`{"rich_text":[]}`)}
	assertValidationError(t, req.Validate(), "block_type")
}

func TestSearchFilterTypeEnum(t *testing.T) {
	req := &SearchRequest{Query: "q", FilterType: "workspace"}
	assertValidationError(t, req.Validate(), "filter_type")
}

func TestSortDirectionEnum(t *testing.T) {
	req := &QueryDatabaseRequest{
		DatabaseID: "d",
		Sorts:      json.RawMessage(`[{"property":"Name","direction":"sideways"}]`),
	}
	assertValidationError(t, req.Validate(), "sorts.direction")

	search := &SearchRequest{
		Query: "q",
		Sort:  json.RawMessage(`{"direction":"sideways","timestamp":"last_edited_time"}`),
	}
	assertValidationError(t, search.Validate(), "sort.direction")
}

func TestAppendBlockCap(t *testing.T) {
	children := make([]json.RawMessage, MaxAppendBlocks+1)
	for i := range children {
		children[i] = json.RawMessage(`{"type":"paragraph"}`)
	}
	encoded, err := json.Marshal(children)
	if err != nil {
		t.Fatalf("Failed to build oversized children array: %v", err)
	}

	req := &AppendPageContentRequest{BlockID: "b", Children: encoded}
	assertValidationError(t, req.Validate(), "children")

	// Exactly the cap is allowed.
	encoded, _ = json.Marshal(children[:MaxAppendBlocks])
	req.Children = encoded
	if err := req.Validate(); err != nil {
		t.Errorf("Expected %d blocks to validate, got %v", MaxAppendBlocks, err)
	}
}

func TestAppendChildrenMustBeArray(t *testing.T) {
	req := &AppendPageContentRequest{BlockID: "b", Children: json.RawMessage(`{"type":"paragraph"}`)}
	assertValidationError(t, req.Validate(), "children")
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 12 {
		t.Fatalf("Expected 12 tools, got %d", len(names))
	}
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			t.Errorf("Duplicate tool name %q", name)
		}
		seen[name] = true
		if !IsSupported(name) {
			t.Errorf("Expected %q to be supported", name)
		}
	}
	if IsSupported("delete_workspace") {
		t.Error("Expected unknown tool name to be unsupported")
	}
}
