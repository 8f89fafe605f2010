package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PublishSpan watcher 发布事件时的 producer span
func PublishSpan(ctx context.Context, exchange, routingKey string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "publish "+routingKey,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(messagingAttrs(exchange, routingKey)...),
	)
}

// ConsumeSpan 从消息头恢复上游 trace 后开启 consumer span
func ConsumeSpan(ctx context.Context, headers map[string]any, exchange, routingKey string) (context.Context, trace.Span) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(headers))
	return Tracer().Start(ctx, "consume "+routingKey,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(messagingAttrs(exchange, routingKey)...),
	)
}

// InjectMessage 把当前 trace context 写入消息头
func InjectMessage(ctx context.Context, headers map[string]any) {
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(headers))
}

func messagingAttrs(exchange, routingKey string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination.name", exchange),
		attribute.String("messaging.rabbitmq.destination.routing_key", routingKey),
	}
}

// HeaderCarrier 让 AMQP 消息头满足 propagation.TextMapCarrier
type HeaderCarrier map[string]any

func (c HeaderCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c HeaderCarrier) Set(key, value string) {
	c[key] = value
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
