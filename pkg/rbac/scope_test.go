package rbac

import "testing"

func TestInScope(t *testing.T) {
	tests := []struct {
		name    string
		actor   Scope
		request Scope
		want    bool
	}{
		{"empty request is unconstrained", Scope{BusinessID: "B1"}, Scope{}, true},
		{"empty actor, empty request", Scope{}, Scope{}, true},
		{"same business", Scope{BusinessID: "B1"}, Scope{BusinessID: "B1"}, true},
		{"other business", Scope{BusinessID: "B1"}, Scope{BusinessID: "B2"}, false},
		{"actor without business", Scope{}, Scope{BusinessID: "B1"}, false},
		{"business mismatch ignores location", Scope{BusinessID: "X", LocationID: "Z"}, Scope{BusinessID: "Y", LocationID: "Z"}, false},
		{"business match, location absent in actor", Scope{BusinessID: "B1"}, Scope{BusinessID: "B1", LocationID: "L1"}, false},
		{"business and location match", Scope{BusinessID: "B1", LocationID: "L1"}, Scope{BusinessID: "B1", LocationID: "L1"}, true},
		{"location mismatch", Scope{BusinessID: "B1", LocationID: "L1"}, Scope{BusinessID: "B1", LocationID: "L2"}, false},
		{"finer actor, coarser request", Scope{BusinessID: "B1", LocationID: "L1", DepartmentID: "D1"}, Scope{BusinessID: "B1"}, true},
		{"department mismatch", Scope{BusinessID: "B1", LocationID: "L1", DepartmentID: "D1"}, Scope{BusinessID: "B1", LocationID: "L1", DepartmentID: "D2"}, false},
		{"department only", Scope{DepartmentID: "D1"}, Scope{DepartmentID: "D1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InScope(tt.actor, tt.request); got != tt.want {
				t.Errorf("InScope(%+v, %+v) = %v, want %v", tt.actor, tt.request, got, tt.want)
			}
		})
	}
}

func TestBusinessContext_Scope(t *testing.T) {
	b, l := "B1", "L1"
	bc := BusinessContext{BusinessID: &b, LocationID: &l}

	got := bc.Scope()
	want := Scope{BusinessID: "B1", LocationID: "L1"}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if !(BusinessContext{}).Scope().IsZero() {
		t.Error("Expected empty context to produce a zero scope")
	}
}
