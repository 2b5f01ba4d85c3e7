package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/homespan/knxbridge/internal/store"
)

// defaultQoS applies to outbound links that don't set one explicitly.
const defaultQoS byte = 1

// Assembly collects record configurations and connectors, then builds
// them into a running Bridge in one shot.
//
// Configuration methods record errors instead of returning them, so a
// whole assembly can be declared fluently; every deferred error
// surfaces from Build. Assembly is not safe for concurrent use; build
// it from one goroutine.
type Assembly struct {
	logger        Logger
	connectors    map[string]Connector
	registrations []registration
	names         map[string]bool
	errs          []error
}

// registration is the type-erased view of a configured record.
type registration interface {
	recordName() string
	validate(a *Assembly) error
	start(ctx context.Context, b *Bridge, a *Assembly) error
}

// NewAssembly creates an empty assembly.
func NewAssembly(logger Logger) *Assembly {
	return &Assembly{
		logger:     logger,
		connectors: make(map[string]Connector),
		names:      make(map[string]bool),
	}
}

// AddConnector registers a transport under its scheme.
func (a *Assembly) AddConnector(c Connector) *Assembly {
	scheme := c.Scheme()
	if _, exists := a.connectors[scheme]; exists {
		a.errs = append(a.errs, fmt.Errorf("connector scheme %q registered twice", scheme))
		return a
	}
	a.connectors[scheme] = c
	return a
}

// Configure declares a record of type T under the given name and
// returns its registrar for fluent link and buffer configuration.
func Configure[T any](a *Assembly, name string) *Registrar[T] {
	reg := &typedRegistration[T]{
		name:   name,
		policy: store.LatestPolicy(),
	}

	if a.names[name] {
		a.errs = append(a.errs, fmt.Errorf("%w: %q", ErrDuplicateRecord, name))
	} else {
		a.names[name] = true
		a.registrations = append(a.registrations, reg)
	}

	return &Registrar[T]{assembly: a, reg: reg}
}

// Build validates the whole assembly and starts every record flow.
//
// Build is all-or-nothing: any configuration or wiring error returns
// ErrBuildFailed and nothing is left running. On success the returned
// Bridge owns all flows until Stop.
//
// Per record, wiring order is: buffer, inbound link, outbound links,
// monitors. Records are wired in configuration order.
func (a *Assembly) Build(ctx context.Context) (*Bridge, error) {
	if len(a.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, errors.Join(a.errs...))
	}
	if len(a.registrations) == 0 {
		return nil, fmt.Errorf("%w: no records configured", ErrBuildFailed)
	}

	for _, reg := range a.registrations {
		if err := reg.validate(a); err != nil {
			return nil, fmt.Errorf("%w: record %q: %w", ErrBuildFailed, reg.recordName(), err)
		}
	}

	bctx, cancel := context.WithCancel(ctx)
	b := &Bridge{
		logger: a.logger,
		ctx:    bctx,
		cancel: cancel,
	}

	for _, reg := range a.registrations {
		if err := reg.start(bctx, b, a); err != nil {
			b.Stop()
			return nil, fmt.Errorf("%w: record %q: %w", ErrBuildFailed, reg.recordName(), err)
		}
	}

	if a.logger != nil {
		a.logger.Info("bridge assembled", "records", len(a.registrations))
	}

	return b, nil
}

// inboundLink binds a decoder to the endpoint a record is written from.
type inboundLink[T any] struct {
	endpoint Endpoint
	decode   func([]byte) (T, error)
}

// outboundLink binds an encoder to an endpoint the record fans out to.
type outboundLink[T any] struct {
	endpoint Endpoint
	encode   func(T) ([]byte, error)
	opts     PublishOptions
}

// typedRegistration holds the full configuration of one record.
type typedRegistration[T any] struct {
	name      string
	policy    store.Policy
	inbound   *inboundLink[T]
	outbounds []outboundLink[T]
	taps      []func(context.Context, store.Reader[T])
	errs      []error
}

func (t *typedRegistration[T]) recordName() string { return t.name }

func (t *typedRegistration[T]) validate(a *Assembly) error {
	if len(t.errs) > 0 {
		return errors.Join(t.errs...)
	}

	if t.inbound != nil {
		if _, ok := a.connectors[t.inbound.endpoint.Scheme]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownScheme, t.inbound.endpoint.Scheme)
		}
	}
	for _, out := range t.outbounds {
		if _, ok := a.connectors[out.endpoint.Scheme]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownScheme, out.endpoint.Scheme)
		}
	}

	return nil
}

func (t *typedRegistration[T]) start(ctx context.Context, b *Bridge, a *Assembly) error {
	cell, err := store.New[T](t.policy)
	if err != nil {
		return fmt.Errorf("creating buffer: %w", err)
	}
	b.addCloser(cell.Close)

	if t.inbound != nil {
		if err := t.startInbound(b, a, cell); err != nil {
			return err
		}
	}

	for _, out := range t.outbounds {
		t.startOutbound(ctx, b, a, cell, out)
	}

	for _, tap := range t.taps {
		reader := cell.Subscribe()
		b.wg.Add(1)
		go func(fn func(context.Context, store.Reader[T])) {
			defer b.wg.Done()
			fn(ctx, reader)
		}(tap)
	}

	if a.logger != nil {
		a.logger.Debug("record wired",
			"record", t.name,
			"buffer", t.policy.String(),
			"outbound_links", len(t.outbounds),
			"monitors", len(t.taps))
	}

	return nil
}

// startInbound registers the record's single writer on its transport.
func (t *typedRegistration[T]) startInbound(b *Bridge, a *Assembly, cell store.Cell[T]) error {
	conn := a.connectors[t.inbound.endpoint.Scheme]
	decode := t.inbound.decode
	name := t.name
	source := t.inbound.endpoint.String()

	err := conn.Receive(t.inbound.endpoint.Path, func(payload []byte) {
		value, err := decode(payload)
		if err != nil {
			b.decodeErrors.Add(1)
			if b.logger != nil {
				b.logger.Warn("inbound payload dropped",
					"record", name,
					"source", source,
					"error", err)
			}
			return
		}
		cell.Set(value)
		b.inbound.Add(1)
	})
	if err != nil {
		return fmt.Errorf("inbound link %s: %w", source, err)
	}
	return nil
}

// startOutbound launches one goroutine draining the cell into a sink.
// Each outbound link has its own subscription, so a slow sink never
// stalls its siblings.
func (t *typedRegistration[T]) startOutbound(ctx context.Context, b *Bridge, a *Assembly, cell store.Cell[T], out outboundLink[T]) {
	conn := a.connectors[out.endpoint.Scheme]
	reader := cell.Subscribe()
	name := t.name
	sink := out.endpoint.String()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			value, err := reader.Next(ctx)
			if err != nil {
				return
			}

			payload, err := out.encode(value)
			if err != nil {
				b.encodeErrors.Add(1)
				if b.logger != nil {
					b.logger.Warn("outbound encode failed",
						"record", name,
						"sink", sink,
						"error", err)
				}
				continue
			}

			if err := conn.Send(ctx, out.endpoint.Path, payload, out.opts); err != nil {
				b.publishErrors.Add(1)
				if b.logger != nil {
					b.logger.Warn("outbound delivery failed",
						"record", name,
						"sink", sink,
						"error", err)
				}
				continue
			}
			b.outbound.Add(1)
		}
	}()
}

// Registrar configures one record fluently. All methods return the
// registrar; errors are deferred to Assembly.Build.
type Registrar[T any] struct {
	assembly *Assembly
	reg      *typedRegistration[T]
}

// Buffer selects the record's buffer policy. Defaults to LatestPolicy.
func (r *Registrar[T]) Buffer(p store.Policy) *Registrar[T] {
	r.reg.policy = p
	return r
}

// Tap registers a monitor. The tap receives its own subscription and
// runs on its own goroutine; it observes the flow without affecting it.
func (r *Registrar[T]) Tap(fn func(context.Context, store.Reader[T])) *Registrar[T] {
	if fn == nil {
		r.reg.errs = append(r.reg.errs, fmt.Errorf("%w: tap", ErrNilCodec))
		return r
	}
	r.reg.taps = append(r.reg.taps, fn)
	return r
}

// LinkFrom binds the record's single inbound source. The decoder turns
// transport payloads into record values; payloads it rejects are
// counted and dropped.
func (r *Registrar[T]) LinkFrom(endpoint string, decode func([]byte) (T, error)) *Registrar[T] {
	if r.reg.inbound != nil {
		r.reg.errs = append(r.reg.errs, fmt.Errorf("%w: %s", ErrDuplicateInbound, endpoint))
		return r
	}
	if decode == nil {
		r.reg.errs = append(r.reg.errs, fmt.Errorf("%w: decoder for %s", ErrNilCodec, endpoint))
		return r
	}

	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		r.reg.errs = append(r.reg.errs, err)
		return r
	}

	r.reg.inbound = &inboundLink[T]{endpoint: ep, decode: decode}
	return r
}

// LinkTo adds an outbound sink. Each sink gets an independent
// subscription and goroutine.
func (r *Registrar[T]) LinkTo(endpoint string, encode func(T) ([]byte, error), opts ...LinkOption) *Registrar[T] {
	if encode == nil {
		r.reg.errs = append(r.reg.errs, fmt.Errorf("%w: encoder for %s", ErrNilCodec, endpoint))
		return r
	}

	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		r.reg.errs = append(r.reg.errs, err)
		return r
	}

	link := outboundLink[T]{
		endpoint: ep,
		encode:   encode,
		opts:     PublishOptions{QoS: defaultQoS},
	}
	for _, opt := range opts {
		opt(&link.opts)
	}

	r.reg.outbounds = append(r.reg.outbounds, link)
	return r
}

// LinkOption adjusts an outbound link's publish options.
type LinkOption func(*PublishOptions)

// WithQoS sets the MQTT QoS level for an outbound link.
func WithQoS(qos byte) LinkOption {
	return func(o *PublishOptions) { o.QoS = qos }
}

// WithRetain marks an outbound link's messages as retained.
func WithRetain() LinkOption {
	return func(o *PublishOptions) { o.Retain = true }
}
