package enums

import "testing"

func TestParseUserRole(t *testing.T) {
	cases := []struct {
		input   string
		want    UserRole
		wantErr bool
	}{
		{"admin", UserRoleAdmin, false},
		{" Student ", UserRoleStudent, false},
		{"USER", UserRoleUser, false},
		{"librarian", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParseUserRole(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestUserRoleIsValid(t *testing.T) {
	if !UserRoleAdmin.IsValid() {
		t.Fatal("admin should be valid")
	}
	if UserRole("root").IsValid() {
		t.Fatal("root should not be valid")
	}
}
