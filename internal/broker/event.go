package broker

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Виды событий, последний элемент subject.
const (
	KindCritical = "critical"
	KindInfo     = "info"
)

// Event событие журнала в виде, в котором оно уходит в NATS.
type Event struct {
	Message  string
	Critical bool
	Time     time.Time
	Attrs    map[string]string
}

// Kind возвращает вид события.
func (e Event) Kind() string {
	if e.Critical {
		return KindCritical
	}
	return KindInfo
}

// Subject возвращает subject для события с префиксом prefix.
func Subject(prefix string, critical bool) string {
	if critical {
		return prefix + "." + KindCritical
	}
	return prefix + "." + KindInfo
}

// EncodeEvent кодирует событие в protobuf structpb.Struct.
// Значения attrs приводятся к строкам.
func EncodeEvent(msg string, critical bool, t time.Time, attrs []any) ([]byte, error) {
	fields := make(map[string]*structpb.Value, 3+len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		fields[fmt.Sprint(attrs[i])] = structpb.NewStringValue(fmt.Sprint(attrs[i+1]))
	}
	fields["message"] = structpb.NewStringValue(msg)
	fields["critical"] = structpb.NewBoolValue(critical)
	fields["time"] = structpb.NewStringValue(t.UTC().Format(time.RFC3339Nano))

	data, err := proto.Marshal(&structpb.Struct{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DecodeEvent разбирает событие, закодированное EncodeEvent.
func DecodeEvent(data []byte) (Event, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}

	ev := Event{Attrs: make(map[string]string)}
	for key, val := range st.GetFields() {
		switch key {
		case "message":
			ev.Message = val.GetStringValue()
		case "critical":
			ev.Critical = val.GetBoolValue()
		case "time":
			t, err := time.Parse(time.RFC3339Nano, val.GetStringValue())
			if err != nil {
				return Event{}, fmt.Errorf("parse event time: %w", err)
			}
			ev.Time = t
		default:
			ev.Attrs[key] = val.GetStringValue()
		}
	}
	return ev, nil
}
