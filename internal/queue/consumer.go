package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartAuditConsumer connects to RabbitMQ, declares the records.audit
// queue (durable), and starts consuming envelopes.  Each event is
// appended to logs/audit.log as a single human-readable line.  The
// function never returns: it runs a reconnect loop with capped backoff
// and keeps the server operating through broker outages; malformed
// messages are rejected without requeueing to avoid tight loops.  Run
// it on its own goroutine.
func StartAuditConsumer() {
    url := brokerURL()
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("audit-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(auditQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(d.Body); err != nil {
            log.Printf("audit-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
    var env Envelope
    if err := json.Unmarshal(body, &env); err != nil {
        return fmt.Errorf("unmarshal envelope: %w", err)
    }

    line, err := formatLine(env)
    if err != nil {
        return err
    }

    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "audit.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatLine renders one audit line per event kind.
func formatLine(env Envelope) (string, error) {
    switch env.Kind {
    case KindStudentUpdated:
        var ev StudentUpdatedEvent
        if err := json.Unmarshal(env.Data, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", env.Kind, err)
        }
        return fmt.Sprintf("[%s] Student updated | student_id=%s | version=%d->%d | updated_at=%s\n",
            env.OccurredAt, ev.StudentID, ev.PrevVersion, ev.Version, ev.UpdatedAt), nil
    case KindSubmissionReceived:
        var ev SubmissionReceivedEvent
        if err := json.Unmarshal(env.Data, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", env.Kind, err)
        }
        user := ev.UserSub
        if user == "" {
            user = "anonymous"
        }
        return fmt.Sprintf("[%s] Submission received | submission_id=%s | user=%s | received_at=%s\n",
            env.OccurredAt, ev.SubmissionID, user, ev.ReceivedAt), nil
    default:
        return "", fmt.Errorf("unknown event kind %q", env.Kind)
    }
}
