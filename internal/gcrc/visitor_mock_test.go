package gcrc

import (
	"reflect"
	"testing"

	"go.uber.org/mock/gomock"
)

// MockVisitor is a hand-maintained stand-in for what `mockgen` would
// generate for the Visitor interface. Visitor is deliberately sealed on
// AnyHandle (see visitor.go), which keeps it out of mockgen's reach from
// outside this package, so the mock lives here by hand instead, in the
// conventional generated-output shape (NewMockVisitor(ctrl),
// EXPECT().Visit(...)).
type MockVisitor struct {
	ctrl     *gomock.Controller
	recorder *MockVisitorMockRecorder
}

// MockVisitorMockRecorder is the recorder half of MockVisitor.
type MockVisitorMockRecorder struct {
	mock *MockVisitor
}

// NewMockVisitor constructs a MockVisitor registered with ctrl.
func NewMockVisitor(ctrl *gomock.Controller) *MockVisitor {
	mock := &MockVisitor{ctrl: ctrl}
	mock.recorder = &MockVisitorMockRecorder{mock: mock}

	return mock
}

// EXPECT returns an object that allows the caller to indicate expected
// calls.
func (m *MockVisitor) EXPECT() *MockVisitorMockRecorder {
	return m.recorder
}

// Visit implements Visitor.
func (m *MockVisitor) Visit(h AnyHandle) error {
	m.ctrl.T.Helper()

	ret := m.ctrl.Call(m, "Visit", h)
	err, _ := ret[0].(error)

	return err
}

// Visit indicates an expected call of Visit.
func (mr *MockVisitorMockRecorder) Visit(h interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Visit",
		reflect.TypeOf((*MockVisitor)(nil).Visit), h)
}

// TestAcceptVisitsEachHandleExactlyOnce verifies the payload/Visitor
// contract Accept implementations must honor: Visit is called once per
// contained Handle, not once per Accept call or once per distinct
// target.
func TestAcceptVisitsEachHandleExactlyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := NewDumpster()

	var countA, countB int

	a := NewOn(d, newMultiRef(&countA))
	b := NewOn(d, newMultiRef(&countB))

	(*a.Value()).push(b.Clone())
	(*a.Value()).push(b.Clone())

	mv := NewMockVisitor(ctrl)
	mv.EXPECT().Visit(gomock.Any()).Return(nil).Times(2)

	if err := (*a.Value()).Accept(mv); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	a.Drop()
	b.Drop()
}
