package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSQS{}
	client := NewSQSClientWithAPI(fake, "https://sqs.us-east-1.amazonaws.com/123/kyc-events")

	err := client.Send(context.Background(), Message{WorkflowID: "wf-1", Status: "failed", Source: "relay", Version: MessageVersion})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.QueueUrl) != "https://sqs.us-east-1.amazonaws.com/123/kyc-events" {
		t.Fatalf("unexpected queue url %q", aws.ToString(in.QueueUrl))
	}
	var msg Message
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &msg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.Status != "failed" || msg.Source != "relay" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if aws.ToString(in.MessageAttributes["status"].StringValue) != "failed" {
		t.Fatalf("expected status attribute")
	}
}

func TestSQSClientSendWrapsError(t *testing.T) {
	client := NewSQSClientWithAPI(&fakeSQS{err: errors.New("throttled")}, "q")
	if err := client.Send(context.Background(), Message{WorkflowID: "wf-1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMemoryClientCollects(t *testing.T) {
	var c MemoryClient
	_ = c.Send(context.Background(), Message{WorkflowID: "a"})
	_ = c.Send(context.Background(), Message{WorkflowID: "b"})
	got := c.Messages()
	if len(got) != 2 || got[1].WorkflowID != "b" {
		t.Fatalf("unexpected messages %+v", got)
	}
}
