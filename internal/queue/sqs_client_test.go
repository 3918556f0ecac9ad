package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	sent []*sqs.SendMessageInput
	err  error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{}, f.err
}

func (f *fakeSQS) ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSQS{}
	client, err := NewSQSClient(fake, " https://sqs.example/queue ")
	if err != nil {
		t.Fatalf("NewSQSClient: %v", err)
	}
	msg := NewMessage("e1", "r1", time.Unix(0, 0))
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.sent) != 1 || aws.ToString(fake.sent[0].QueueUrl) != "https://sqs.example/queue" {
		t.Fatalf("unexpected send %+v", fake.sent)
	}
	decoded, err := DecodeMessage([]byte(aws.ToString(fake.sent[0].MessageBody)))
	if err != nil || decoded.EvaluationID != "e1" {
		t.Fatalf("body did not decode: %+v %v", decoded, err)
	}
}

func TestSQSClientErrors(t *testing.T) {
	if _, err := NewSQSClient(&fakeSQS{}, ""); err == nil {
		t.Fatalf("expected error for empty queue url")
	}
	boom := errors.New("throttled")
	client, _ := NewSQSClient(&fakeSQS{err: boom}, "q")
	if err := client.Send(context.Background(), Message{EvaluationID: "e"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestSendRejectsInvalidMessages(t *testing.T) {
	fake := &fakeSQS{}
	client, _ := NewSQSClient(fake, "q")
	if err := client.Send(context.Background(), Message{EvaluationID: "  "}); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if err := client.Send(context.Background(), Message{EvaluationID: "e", Version: MessageVersion + 1}); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage for future version, got %v", err)
	}
	if len(fake.sent) != 0 {
		t.Fatalf("invalid messages reached SQS: %d", len(fake.sent))
	}
}

func TestClientFunc(t *testing.T) {
	var got []Message
	client := ClientFunc(func(_ context.Context, msg Message) error {
		got = append(got, msg)
		return nil
	})
	if err := client.Send(context.Background(), NewMessage("e1", "", time.Unix(0, 0))); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := client.Send(context.Background(), Message{}); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if len(got) != 1 || got[0].EvaluationID != "e1" {
		t.Fatalf("unexpected deliveries %+v", got)
	}
}
