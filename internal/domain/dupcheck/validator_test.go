package dupcheck

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	field, value, excludeID string
}

type fakeChecker struct {
	mu    sync.Mutex
	calls []call
	taken map[string]bool
	err   error
	gate  chan struct{}
}

func (f *fakeChecker) CheckUnique(ctx context.Context, field, value, excludeID string) (bool, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{field, value, excludeID})
	if f.err != nil {
		return false, f.err
	}
	return f.taken[value], nil
}

func (f *fakeChecker) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func TestTypingAccountNumberFiresOneCheck(t *testing.T) {
	checker := &fakeChecker{taken: map[string]bool{"12345678": true}}
	shared := NewErrorMap()
	v := New(checker, shared, "", Options{Debounce: 20 * time.Millisecond})
	defer v.Close()

	typed := ""
	for _, r := range "1234-5678" {
		typed += string(r)
		v.Observe(FieldBankAccountNumber, typed)
	}
	require.NoError(t, v.Flush(context.Background()))

	assert.Equal(t, []call{{"bank_account_number", "12345678", ""}}, checker.Calls())
	assert.Equal(t, "Account number already exists", shared.Get("bank_account_number"))
	assert.Equal(t, "Account number already exists", v.Errors()["bank_account_number"])
}

func TestShortValueClearsWithoutCheck(t *testing.T) {
	checker := &fakeChecker{}
	shared := NewErrorMap()
	shared.Set("bank_account_number", "Account number already exists")
	v := New(checker, shared, "", Options{})
	defer v.Close()

	got := v.Observe(FieldBankAccountNumber, "12a3")
	require.NoError(t, v.Flush(context.Background()))

	assert.Equal(t, "123", got)
	assert.Empty(t, checker.Calls())
	assert.False(t, shared.HasErrors())
}

func TestUniqueValueClearsError(t *testing.T) {
	checker := &fakeChecker{taken: map[string]bool{"EMP-1": true}}
	shared := NewErrorMap()
	v := New(checker, shared, "42", Options{})
	defer v.Close()

	v.Observe(FieldEmployeeCode, "EMP-1")
	require.NoError(t, v.Flush(context.Background()))
	require.Equal(t, "Employee code already exists", shared.Get("employee_code"))

	v.Observe(FieldEmployeeCode, "EMP-2")
	require.NoError(t, v.Flush(context.Background()))
	assert.Empty(t, shared.Get("employee_code"))
	assert.Equal(t, "42", checker.Calls()[0].excludeID)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	checker := &fakeChecker{taken: map[string]bool{"old@example.com": true}, gate: gate}
	shared := NewErrorMap()
	v := New(checker, shared, "", Options{})
	defer v.Close()

	v.Observe(FieldPersonalEmail, "old@example.com")
	// Let the timer fire and block inside the checker.
	time.Sleep(20 * time.Millisecond)
	v.Observe(FieldPersonalEmail, "ab")
	close(gate)
	require.NoError(t, v.Flush(context.Background()))

	assert.Empty(t, shared.Get("personal_email"))
}

func TestCheckFailureLeavesStateUnchanged(t *testing.T) {
	var failures int
	checker := &fakeChecker{err: errors.New("boom")}
	shared := NewErrorMap()
	shared.Set("phone", "Phone number already exists")
	v := New(checker, shared, "", Options{OnCheck: func(failed bool) {
		if failed {
			failures++
		}
	}})
	defer v.Close()

	v.Observe(FieldPhone, "+1 (555) 010-9999")
	require.NoError(t, v.Flush(context.Background()))

	assert.Equal(t, "Phone number already exists", shared.Get("phone"))
	assert.Equal(t, 1, failures)
}

func TestNonUniqueFieldPassesThrough(t *testing.T) {
	checker := &fakeChecker{}
	v := New(checker, nil, "", Options{})
	defer v.Close()

	assert.Equal(t, "Ada-", v.Observe(Field("first_name"), "Ada-"))
	require.NoError(t, v.Flush(context.Background()))
	assert.Empty(t, checker.Calls())
}

func TestCloseDropsPendingChecks(t *testing.T) {
	checker := &fakeChecker{}
	v := New(checker, nil, "", Options{Debounce: time.Hour})
	v.Observe(FieldCompanyEmail, "ada@corp.example")
	v.Close()
	assert.Empty(t, checker.Calls())
}

func TestFlushWhileEditing(t *testing.T) {
	checker := &fakeChecker{}
	v := New(checker, nil, "", Options{Debounce: time.Millisecond})
	defer v.Close()

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			v.Observe(FieldEmployeeCode, "EMP-"+strconv.Itoa(i))
		}(i)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = v.Flush(ctx)
		}()
	}
	wg.Wait()

	require.NoError(t, v.Flush(context.Background()))
	assert.NotEmpty(t, checker.Calls())
}

func TestFlushHonoursContext(t *testing.T) {
	checker := &fakeChecker{gate: make(chan struct{})}
	v := New(checker, nil, "", Options{Debounce: time.Millisecond})
	v.Observe(FieldEmployeeCode, "EMP-001")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, v.Flush(ctx), context.DeadlineExceeded)

	close(checker.gate)
	require.NoError(t, v.Flush(context.Background()))
	assert.Len(t, checker.Calls(), 1)
	v.Close()
}

func TestRules(t *testing.T) {
	assert.True(t, IsUnique("emergency_email"))
	assert.False(t, IsUnique("first_name"))
	assert.Equal(t, "5550100", Normalize(FieldEmergencyPhone, "555-0100"))
	assert.Equal(t, "a-b", Normalize(FieldEmployeeCode, "a-b"))
	assert.False(t, Rules[FieldEmployeeCode].Eligible(" ab "))
	assert.True(t, Rules[FieldEmployeeCode].Eligible("abc"))
}

func TestErrorMapFields(t *testing.T) {
	m := NewErrorMap()
	m.Set("phone", "x")
	m.Set("employee_code", "y")
	m.Set("bank_account_number", "")
	assert.Equal(t, []string{"employee_code", "phone"}, m.Fields())
	m.Reset()
	assert.False(t, m.HasErrors())
}
