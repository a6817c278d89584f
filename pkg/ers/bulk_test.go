package ers

import (
	"context"
	"errors"
	"testing"

	"github.com/nuuday/NDCiscoISE/internal/testutil"
)

const bulkRequestXML = `<?xml version="1.0" encoding="UTF-8"?>
<ns4:networkDeviceBulkRequest operationType="create" resourceMediaType="vnd.com.cisco.ise.network.networkdevice.1.1+xml"
    xmlns:ns4="network.ers.ise.cisco.com">
  <ns4:resourcesList>
    <ns4:networkdevice name="bulk-switch-01"/>
  </ns4:resourcesList>
</ns4:networkDeviceBulkRequest>`

func TestClient_SubmitBulk(t *testing.T) {
	mock := testutil.NewMockISE()
	defer mock.Close()
	client := newTestClient(t, mock, 100)

	bulkID, err := client.SubmitBulk(context.Background(), "networkdevice", []byte(bulkRequestXML))
	if err != nil {
		t.Fatalf("SubmitBulk() error: %v", err)
	}
	if bulkID == "" {
		t.Error("SubmitBulk() returned empty bulk id")
	}
}

func TestClient_SubmitBulk_Unsupported(t *testing.T) {
	mock := testutil.NewMockISE()
	defer mock.Close()
	client := newTestClient(t, mock, 100)

	// identitygroup has no bulk subtree.
	if _, err := client.SubmitBulk(context.Background(), "identitygroup", []byte(bulkRequestXML)); !errors.Is(err, ErrBulkUnsupported) {
		t.Errorf("SubmitBulk() error = %v, want ErrBulkUnsupported", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("no request should be sent, saw %d", mock.RequestCount())
	}
}

func TestClient_SubmitBulk_EmptyPayload(t *testing.T) {
	mock := testutil.NewMockISE()
	defer mock.Close()
	client := newTestClient(t, mock, 100)

	if _, err := client.SubmitBulk(context.Background(), "networkdevice", nil); err == nil {
		t.Error("SubmitBulk() should reject an empty payload")
	}
}

func TestClient_BulkStatus(t *testing.T) {
	mock := testutil.NewMockISE()
	defer mock.Close()
	client := newTestClient(t, mock, 100)
	ctx := context.Background()

	bulkID, err := client.SubmitBulk(ctx, "networkdevice", []byte(bulkRequestXML))
	if err != nil {
		t.Fatalf("SubmitBulk() error: %v", err)
	}

	status, err := client.BulkStatus(ctx, "networkdevice", bulkID)
	if err != nil {
		t.Fatalf("BulkStatus() error: %v", err)
	}
	if status["executionStatus"] != BulkStatusCompleted {
		t.Errorf("executionStatus = %v, want %s", status["executionStatus"], BulkStatusCompleted)
	}
	if status["bulkId"] != bulkID {
		t.Errorf("bulkId = %v, want %s", status["bulkId"], bulkID)
	}
}

func TestClient_BulkStatus_EmptyID(t *testing.T) {
	mock := testutil.NewMockISE()
	defer mock.Close()
	client := newTestClient(t, mock, 100)

	if _, err := client.BulkStatus(context.Background(), "networkdevice", ""); err == nil {
		t.Error("BulkStatus() should reject an empty bulk id")
	}
}

func TestClient_WaitBulk(t *testing.T) {
	mock := testutil.NewMockISE()
	defer mock.Close()
	client := newTestClient(t, mock, 100)
	ctx := context.Background()

	bulkID, err := client.SubmitBulk(ctx, "networkdevice", []byte(bulkRequestXML))
	if err != nil {
		t.Fatalf("SubmitBulk() error: %v", err)
	}

	// The mock reports COMPLETED immediately, so the first poll wins.
	status, err := client.WaitBulk(ctx, "networkdevice", bulkID)
	if err != nil {
		t.Fatalf("WaitBulk() error: %v", err)
	}
	if status["executionStatus"] != BulkStatusCompleted {
		t.Errorf("executionStatus = %v", status["executionStatus"])
	}
}

func TestClient_WaitBulk_FailedRequestReportsIncomplete(t *testing.T) {
	mock := testutil.NewMockISE()
	defer mock.Close()
	client := newTestClient(t, mock, 100)
	ctx := context.Background()

	bulkID, err := client.SubmitBulk(ctx, "networkdevice", []byte(bulkRequestXML))
	if err != nil {
		t.Fatalf("SubmitBulk() error: %v", err)
	}
	mock.SetBulkExecutionStatus(BulkStatusFailed)

	status, err := client.WaitBulk(ctx, "networkdevice", bulkID)
	if !errors.Is(err, ErrBulkIncomplete) {
		t.Errorf("WaitBulk() error = %v, want ErrBulkIncomplete", err)
	}
	// The envelope still comes back for inspection.
	if status == nil || status["executionStatus"] != BulkStatusFailed {
		t.Errorf("status = %v, want %s envelope", status, BulkStatusFailed)
	}
}
