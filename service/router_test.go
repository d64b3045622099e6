// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package service_test

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/internal/xmpptest"
	"mellium.im/pubsub/service"
	"mellium.im/pubsub/stanza"
)

var (
	serviceJID = jid.MustParse("pubsub.example.org")
	userJID    = jid.MustParse("user@example.org/orchard")
)

func newRouter(t *testing.T, opts ...service.Option) (*service.Router, *xmpptest.Recorder) {
	t.Helper()
	rec := xmpptest.NewRecorder()
	r := service.New(rec, opts...)
	t.Cleanup(func() {
		assert.NoError(t, r.Close())
	})
	return r, rec
}

func iq(t *testing.T, typ stanza.IQType, payload string) *stanza.Element {
	t.Helper()
	el, err := stanza.ParseString(fmt.Sprintf(
		`<iq xmlns="jabber:client" type="%s" id="req1" from="user@example.org/orchard" to="pubsub.example.org">%s</iq>`,
		typ, payload,
	))
	require.NoError(t, err)
	return el
}

// responseError returns the error carried by an error response.
func responseError(t *testing.T, resp *stanza.Element) pubsub.Error {
	t.Helper()
	require.Equal(t, "error", resp.Attribute("type"), "expected an error response, got %v", resp)
	errEl := stanza.FindError(resp)
	require.NotNil(t, errEl)
	return pubsub.FromStanzaError(stanza.ErrorFromElement(errEl))
}

// requests registers a handler for every action that sends the request it
// receives on the returned channel.
func requests() ([]service.Option, <-chan *service.Request) {
	c := make(chan *service.Request, 10)
	record := func(_ context.Context, req *service.Request) error {
		c <- req
		return nil
	}
	opts := []service.Option{
		service.Publish(func(ctx context.Context, req *service.Request) ([]string, error) {
			return nil, record(ctx, req)
		}),
		service.Subscribe(func(ctx context.Context, req *service.Request) (pubsub.Subscription, error) {
			return pubsub.Subscription{State: pubsub.SubSubscribed}, record(ctx, req)
		}),
		service.Unsubscribe(record),
		service.Retract(record),
		service.Items(func(ctx context.Context, req *service.Request) ([]pubsub.Item, error) {
			return nil, record(ctx, req)
		}),
		service.Create(func(ctx context.Context, req *service.Request) (string, error) {
			return req.Node, record(ctx, req)
		}),
		service.GetOptions(func(ctx context.Context, req *service.Request) (*form.Data, error) {
			return nil, record(ctx, req)
		}),
		service.SetOptions(record),
		service.DefaultOptions(func(ctx context.Context, req *service.Request) (*form.Data, error) {
			return nil, record(ctx, req)
		}),
		service.Subscriptions(func(ctx context.Context, req *service.Request) ([]pubsub.Subscription, error) {
			return nil, record(ctx, req)
		}),
		service.Affiliations(func(ctx context.Context, req *service.Request) ([]pubsub.Affiliation, error) {
			return nil, record(ctx, req)
		}),
		service.GetConfig(func(ctx context.Context, req *service.Request) (*form.Data, error) {
			return nil, record(ctx, req)
		}),
		service.SetConfig(record),
		service.DefaultConfig(func(ctx context.Context, req *service.Request) (*form.Data, error) {
			return nil, record(ctx, req)
		}),
		service.Delete(record),
		service.Purge(record),
		service.NodeSubscriptions(func(ctx context.Context, req *service.Request) ([]pubsub.Subscription, error) {
			return nil, record(ctx, req)
		}),
		service.SetNodeSubscriptions(record),
		service.NodeAffiliations(func(ctx context.Context, req *service.Request) ([]pubsub.Affiliation, error) {
			return nil, record(ctx, req)
		}),
		service.SetNodeAffiliations(record),
	}
	return opts, c
}

func nextRequest(t *testing.T, c <-chan *service.Request) *service.Request {
	t.Helper()
	select {
	case req := <-c:
		return req
	case <-time.After(xmpptest.WaitTimeout):
		t.Fatal("timed out waiting for the handler to be called")
		return nil
	}
}

const (
	configForm = `<x xmlns="jabber:x:data" type="submit">` +
		`<field var="FORM_TYPE" type="hidden"><value>http://jabber.org/protocol/pubsub#node_config</value></field>` +
		`<field var="pubsub#title"><value>Princely Musings</value></field></x>`
	optionsForm = `<x xmlns="jabber:x:data" type="submit">` +
		`<field var="FORM_TYPE" type="hidden"><value>http://jabber.org/protocol/pubsub#subscribe_options</value></field>` +
		`<field var="pubsub#deliver"><value>1</value></field></x>`
)

func TestPublishWithoutNode(t *testing.T) {
	opts, reqs := requests()
	r, rec := newRouter(t, opts...)

	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish/></pubsub>`)))
	resp := rec.Next(t)
	assert.Equal(t, "req1", resp.Attribute("id"))
	assert.Equal(t, "user@example.org/orchard", resp.Attribute("to"))
	assert.Equal(t, "pubsub.example.org", resp.Attribute("from"))

	err := responseError(t, resp)
	assert.Equal(t, stanza.BadRequest, err.Stanza.Condition)
	assert.Equal(t, pubsub.CondNodeRequired, err.Condition)
	assert.Empty(t, reqs)
}

func TestImplicitDefaultNode(t *testing.T) {
	opts, reqs := requests()
	r, rec := newRouter(t, append(opts, service.UseConfig(service.Config{ImplicitDefaultNode: true}))...)

	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish/></pubsub>`)))
	req := nextRequest(t, reqs)
	assert.Equal(t, "", req.Node)
	assert.Equal(t, "result", rec.Next(t).Attribute("type"))
}

func TestUnsupportedAction(t *testing.T) {
	r, rec := newRouter(t)

	require.True(t, r.HandleStanza(iq(t, stanza.GetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><options node="princely_musings" jid="user@example.org"/></pubsub>`)))
	resp := rec.Next(t)
	err := responseError(t, resp)
	assert.Equal(t, stanza.FeatureNotImplemented, err.Stanza.Condition)
	assert.Equal(t, pubsub.CondUnsupported, err.Condition)
	assert.Equal(t, "subscription-options", err.Feature)
	require.NotNil(t, err.Stanza.Application)
	assert.Equal(t, xml.Name{Space: pubsub.NSErrors, Local: "unsupported"}, err.Stanza.Application.XMLName)
	assert.Equal(t, "subscription-options", err.Stanza.Application.Attribute("feature"))
}

func TestUnsupportedOptionsWithoutArguments(t *testing.T) {
	r, rec := newRouter(t)

	require.True(t, r.HandleStanza(iq(t, stanza.GetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><options/></pubsub>`)))
	err := responseError(t, rec.Next(t))
	assert.Equal(t, stanza.FeatureNotImplemented, err.Stanza.Condition)
	assert.Equal(t, pubsub.CondUnsupported, err.Condition)
	assert.Equal(t, "subscription-options", err.Feature)
}

func TestValidatedWithoutHandler(t *testing.T) {
	r, rec := newRouter(t)

	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish/></pubsub>`)))
	err := responseError(t, rec.Next(t))
	assert.Equal(t, stanza.BadRequest, err.Stanza.Condition)
	assert.Equal(t, pubsub.CondNodeRequired, err.Condition)
}

func TestOptionsArgumentsPassedThrough(t *testing.T) {
	opts, reqs := requests()
	r, rec := newRouter(t, opts...)

	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><options/></pubsub>`)))
	req := nextRequest(t, reqs)
	assert.Equal(t, service.ActionSetOptions, req.Action)
	assert.Equal(t, "", req.Node)
	assert.Equal(t, "", req.Subscriber.String())
	assert.Nil(t, req.Form)
	assert.Equal(t, "result", rec.Next(t).Attribute("type"))
}

func TestPubSubNotFirstChild(t *testing.T) {
	opts, reqs := requests()
	r, rec := newRouter(t, opts...)

	require.True(t, r.HandleStanza(iq(t, stanza.GetIQ,
		`<extra xmlns="urn:example"/><pubsub xmlns="http://jabber.org/protocol/pubsub"><items node="n"/></pubsub>`)))
	assert.Equal(t, service.ActionItems, nextRequest(t, reqs).Action)
	assert.Equal(t, "result", rec.Next(t).Attribute("type"))
}

func TestPublishEmpty(t *testing.T) {
	opts, reqs := requests()
	r, rec := newRouter(t, opts...)

	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="princely_musings"/></pubsub>`)))
	req := nextRequest(t, reqs)
	assert.Equal(t, service.ActionPublish, req.Action)
	assert.True(t, userJID.Equal(req.Requestor))
	assert.True(t, serviceJID.Equal(req.Service))
	assert.Equal(t, "princely_musings", req.Node)
	assert.Empty(t, req.Items)

	resp := rec.Next(t)
	assert.Equal(t, "result", resp.Attribute("type"))
	assert.Equal(t, "req1", resp.Attribute("id"))
	assert.Empty(t, resp.Children)
}

func TestRequestArguments(t *testing.T) {
	sub := jid.MustParse("user@example.org")
	tests := []struct {
		typ     stanza.IQType
		payload string
		check   func(*testing.T, *service.Request)
	}{
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="n"><item id="a"><entry xmlns="urn:example"/></item><item/></publish></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionPublish, req.Action)
				require.Len(t, req.Items, 2)
				assert.Equal(t, "a", req.Items[0].ID)
				assert.Equal(t, "entry", req.Items[0].Payload.XMLName.Local)
				assert.Equal(t, "", req.Items[1].ID)
				assert.Nil(t, req.Items[1].Payload)
			},
		},
		{
			typ: stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="n"/><publish-options>` +
				`<x xmlns="jabber:x:data" type="submit"><field var="pubsub#access_model"><value>presence</value></field></x>` +
				`</publish-options></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				require.NotNil(t, req.Form)
				v, _ := req.Form.GetString("pubsub#access_model")
				assert.Equal(t, "presence", v)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><subscribe node="n" jid="user@example.org"/><options>` + optionsForm + `</options></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionSubscribe, req.Action)
				assert.True(t, sub.Equal(req.Subscriber))
				require.NotNil(t, req.Form)
				assert.Equal(t, pubsub.FormSubOptions, req.Form.FormType())
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><unsubscribe node="n" jid="user@example.org" subid="s1"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionUnsubscribe, req.Action)
				assert.Equal(t, "s1", req.SubID)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><retract node="n" notify="true"><item id="a"/><item id="b"/></retract></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionRetract, req.Action)
				assert.True(t, req.Notify)
				assert.Equal(t, []string{"a", "b"}, req.ItemIDs)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><items node="n" max_items="2"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionItems, req.Action)
				assert.Equal(t, 2, req.MaxItems)
				assert.Empty(t, req.ItemIDs)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><items node="n"><item id="a"/></items></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, []string{"a"}, req.ItemIDs)
				assert.Equal(t, 0, req.MaxItems)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><create/><configure>` + configForm + `</configure></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionCreate, req.Action)
				assert.Equal(t, "", req.Node)
				require.NotNil(t, req.Form)
				assert.Equal(t, pubsub.FormNodeConfig, req.Form.FormType())
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><create node="n"/><configure/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, "n", req.Node)
				assert.Nil(t, req.Form)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><options node="n" jid="user@example.org"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionGetOptions, req.Action)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><options node="n" jid="user@example.org">` + optionsForm + `</options></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionSetOptions, req.Action)
				require.NotNil(t, req.Form)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><default/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionDefaultOptions, req.Action)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><subscriptions/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionSubscriptions, req.Action)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><affiliations node="n"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionAffiliations, req.Action)
				assert.Equal(t, "n", req.Node)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><configure node="n"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionGetConfig, req.Action)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><configure node="n">` + configForm + `</configure></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionSetConfig, req.Action)
				v, _ := req.Form.GetString("pubsub#title")
				assert.Equal(t, "Princely Musings", v)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><default/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionDefaultConfig, req.Action)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><delete node="n"><redirect uri="xmpp:pubsub.example.org?;node=m"/></delete></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionDelete, req.Action)
				assert.Equal(t, "xmpp:pubsub.example.org?;node=m", req.Redirect)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><purge node="n"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionPurge, req.Action)
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><subscriptions node="n"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionNodeSubscriptions, req.Action)
			},
		},
		{
			typ: stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><subscriptions node="n">` +
				`<subscription jid="a@example.org" subscription="none"/>` +
				`<subscription jid="b@example.org" subscription="subscribed" subid="s2"/>` +
				`</subscriptions></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionSetNodeSubscriptions, req.Action)
				require.Len(t, req.Subscriptions, 2)
				assert.Equal(t, pubsub.SubNone, req.Subscriptions[0].State)
				assert.Equal(t, "n", req.Subscriptions[0].Node)
				assert.Equal(t, "s2", req.Subscriptions[1].SubID)
				assert.Equal(t, "b@example.org", req.Subscriptions[1].JID.String())
			},
		},
		{
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><affiliations node="n"/></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionNodeAffiliations, req.Action)
			},
		},
		{
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><affiliations node="n"><affiliation jid="a@example.org" affiliation="publisher"/></affiliations></pubsub>`,
			check: func(t *testing.T, req *service.Request) {
				assert.Equal(t, service.ActionSetNodeAffiliations, req.Action)
				require.Len(t, req.Affiliations, 1)
				assert.Equal(t, pubsub.AffiliationPublisher, req.Affiliations[0].Type)
				assert.Equal(t, "n", req.Affiliations[0].Node)
			},
		},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			opts, reqs := requests()
			r, rec := newRouter(t, opts...)
			require.True(t, r.HandleStanza(iq(t, tc.typ, tc.payload)))
			req := nextRequest(t, reqs)
			assert.Equal(t, "req1", req.ID)
			tc.check(t, req)
			assert.Equal(t, "result", rec.Next(t).Attribute("type"))
		})
	}
}

func TestMaxItemsLimit(t *testing.T) {
	opts, reqs := requests()
	r, rec := newRouter(t, append(opts, service.UseConfig(service.Config{MaxItemsLimit: 5}))...)

	for _, tc := range []struct {
		attr string
		want int
	}{
		{attr: ``, want: 5},
		{attr: ` max_items="3"`, want: 3},
		{attr: ` max_items="30"`, want: 5},
	} {
		require.True(t, r.HandleStanza(iq(t, stanza.GetIQ,
			`<pubsub xmlns="http://jabber.org/protocol/pubsub"><items node="n"`+tc.attr+`/></pubsub>`)))
		assert.Equal(t, tc.want, nextRequest(t, reqs).MaxItems, "max_items attribute %q", tc.attr)
		rec.Next(t)
	}
}

func TestValidation(t *testing.T) {
	const ps, owner = `http://jabber.org/protocol/pubsub`, `http://jabber.org/protocol/pubsub#owner`
	tests := []struct {
		typ     stanza.IQType
		payload string
		cond    pubsub.Condition
	}{
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"/>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><frobnicate node="n"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.GetIQ, `<pubsub xmlns="` + ps + `"><publish node="n"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><delete node="n"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><publish node="n" xmlns="urn:example"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><publish node="n"/><publish node="m"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><create/><configure/><configure/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><subscribe node="n" jid="a@example.org"/><configure/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><publish node="n"><item><a xmlns="urn:example"/><b xmlns="urn:example"/></item></publish></pubsub>`, pubsub.CondInvalidPayload},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><subscribe jid="a@example.org"/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><subscribe node="n"/></pubsub>`, pubsub.CondJIDRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><subscribe node="n" jid="@example.org"/></pubsub>`, pubsub.CondInvalidJID},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><unsubscribe node="n"/></pubsub>`, pubsub.CondJIDRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><unsubscribe jid="a@example.org"/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.GetIQ, `<pubsub xmlns="` + ps + `"><options node="n" jid="@example.org"/></pubsub>`, pubsub.CondInvalidJID},
		{stanza.GetIQ, `<pubsub xmlns="` + ps + `"><items/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.GetIQ, `<pubsub xmlns="` + ps + `"><items node="n" max_items="0"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.GetIQ, `<pubsub xmlns="` + ps + `"><items node="n" max_items="many"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.GetIQ, `<pubsub xmlns="` + ps + `"><items node="n"><item/></items></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><retract><item id="a"/></retract></pubsub>`, pubsub.CondNodeRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><retract node="n"/></pubsub>`, pubsub.CondItemRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><retract node="n"><item/></retract></pubsub>`, pubsub.CondItemRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><retract node="n" notify="perhaps"><item id="a"/></retract></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + ps + `"><create node="n"/><configure><x xmlns="jabber:x:data" type="bogus"/></configure></pubsub>`, pubsub.CondBadRequest},
		{stanza.GetIQ, `<pubsub xmlns="` + owner + `"><configure/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><configure node="n"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><delete/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><purge/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.GetIQ, `<pubsub xmlns="` + owner + `"><subscriptions/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><subscriptions node="n"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><subscriptions node="n"><subscription subscription="none"/></subscriptions></pubsub>`, pubsub.CondJIDRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><subscriptions node="n"><subscription jid="a@example.org"/></subscriptions></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><subscriptions node="n"><subscription jid="a@example.org" subscription="maybe"/></subscriptions></pubsub>`, pubsub.CondBadRequest},
		{stanza.GetIQ, `<pubsub xmlns="` + owner + `"><affiliations/></pubsub>`, pubsub.CondNodeRequired},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><affiliations node="n"/></pubsub>`, pubsub.CondBadRequest},
		{stanza.SetIQ, `<pubsub xmlns="` + owner + `"><affiliations node="n"><affiliation jid="a@example.org" affiliation="king"/></affiliations></pubsub>`, pubsub.CondBadRequest},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			opts, reqs := requests()
			r, rec := newRouter(t, opts...)
			require.True(t, r.HandleStanza(iq(t, tc.typ, tc.payload)))
			err := responseError(t, rec.Next(t))
			assert.Equal(t, tc.cond, err.Condition)
			assert.Empty(t, reqs, "handler called for an invalid request")
		})
	}
}

func TestNotHandled(t *testing.T) {
	opts, _ := requests()
	r, rec := newRouter(t, opts...)
	for _, s := range []string{
		`<iq xmlns="jabber:client" type="result" id="1"><pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="n"/></pubsub></iq>`,
		`<iq xmlns="jabber:client" type="get" id="1"><query xmlns="http://jabber.org/protocol/disco#info"/></iq>`,
		`<iq xmlns="jabber:client" type="get" id="1"/>`,
		`<iq xmlns="jabber:client" type="get" id="1" from="@bad"><pubsub xmlns="http://jabber.org/protocol/pubsub"><items node="n"/></pubsub></iq>`,
		`<message xmlns="jabber:client"><pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="n"/></pubsub></message>`,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="n"/></pubsub>`,
	} {
		el, err := stanza.ParseString(s)
		require.NoError(t, err)
		assert.False(t, r.HandleStanza(el), "stanza %s", s)
	}
	assert.False(t, r.HandleStanza(nil))
	rec.Empty(t)
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		err  error
		cond stanza.Condition
		app  string
	}{
		{err: pubsub.Error{Condition: pubsub.CondNodeNotFound}, cond: stanza.ItemNotFound},
		{err: fmt.Errorf("wrapped: %w", pubsub.Error{Condition: pubsub.CondClosedNode}), cond: stanza.NotAllowed, app: "closed-node"},
		{err: pubsub.Error{Condition: pubsub.CondNotSubscribed}, cond: stanza.UnexpectedRequest, app: "not-subscribed"},
		{err: stanza.Error{Type: stanza.Auth, Condition: stanza.Forbidden}, cond: stanza.Forbidden},
		{err: &stanza.Error{Type: stanza.Cancel, Condition: stanza.Conflict}, cond: stanza.Conflict},
		{err: errors.New("disk on fire"), cond: stanza.InternalServerError},
		{err: pubsub.Error{Condition: pubsub.CondTimeout}, cond: stanza.InternalServerError},
		{err: fmt.Errorf("store: %w", pubsub.Error{Condition: pubsub.CondInvalidArgument}), cond: stanza.InternalServerError},
		{err: pubsub.Error{Condition: pubsub.CondRequestFailed, Err: io.ErrUnexpectedEOF}, cond: stanza.InternalServerError},
	}
	for i, tc := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			r, rec := newRouter(t, service.Purge(func(context.Context, *service.Request) error {
				return tc.err
			}))
			require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
				`<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><purge node="n"/></pubsub>`)))
			resp := rec.Next(t)
			err := responseError(t, resp)
			assert.Equal(t, tc.cond, err.Stanza.Condition)
			if tc.app != "" {
				require.NotNil(t, err.Stanza.Application)
				assert.Equal(t, tc.app, err.Stanza.Application.XMLName.Local)
			}
		})
	}
}

func TestHandlerPanic(t *testing.T) {
	r, rec := newRouter(t, service.Delete(func(context.Context, *service.Request) error {
		panic("boom")
	}))
	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><delete node="n"/></pubsub>`)))
	err := responseError(t, rec.Next(t))
	assert.Equal(t, stanza.InternalServerError, err.Stanza.Condition)
	rec.Empty(t)
}

func TestResults(t *testing.T) {
	payload := stanza.NewElement(xml.Name{Space: "urn:example", Local: "entry"})
	tests := []struct {
		name    string
		opt     service.Option
		typ     stanza.IQType
		payload string
		want    string
	}{
		{
			name: "publish",
			opt: service.Publish(func(context.Context, *service.Request) ([]string, error) {
				return []string{"ae890"}, nil
			}),
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="n"><item/></publish></pubsub>`,
			want:    `<pubsub xmlns="http://jabber.org/protocol/pubsub"><publish node="n"><item id="ae890"></item></publish></pubsub>`,
		},
		{
			name: "subscribe",
			opt: service.Subscribe(func(context.Context, *service.Request) (pubsub.Subscription, error) {
				return pubsub.Subscription{SubID: "s1", State: pubsub.SubPending}, nil
			}),
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><subscribe node="n" jid="user@example.org"/></pubsub>`,
			want:    `<pubsub xmlns="http://jabber.org/protocol/pubsub"><subscription node="n" jid="user@example.org" subid="s1" subscription="pending"></subscription></pubsub>`,
		},
		{
			name: "items",
			opt: service.Items(func(context.Context, *service.Request) ([]pubsub.Item, error) {
				return []pubsub.Item{{ID: "a", Payload: payload}}, nil
			}),
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><items node="n"/></pubsub>`,
			want:    `<pubsub xmlns="http://jabber.org/protocol/pubsub"><items node="n"><item id="a"><entry xmlns="urn:example"></entry></item></items></pubsub>`,
		},
		{
			name: "create-instant",
			opt: service.Create(func(context.Context, *service.Request) (string, error) {
				return "25e3d37dabbab9541f7523321421edc5bfeb2dae", nil
			}),
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><create/></pubsub>`,
			want:    `<pubsub xmlns="http://jabber.org/protocol/pubsub"><create node="25e3d37dabbab9541f7523321421edc5bfeb2dae"></create></pubsub>`,
		},
		{
			name: "create-named",
			opt: service.Create(func(_ context.Context, req *service.Request) (string, error) {
				return req.Node, nil
			}),
			typ:     stanza.SetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><create node="n"/></pubsub>`,
		},
		{
			name: "get-options",
			opt: service.GetOptions(func(context.Context, *service.Request) (*form.Data, error) {
				return form.New(pubsub.FormSubOptions), nil
			}),
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><options node="n" jid="user@example.org" subid="s1"/></pubsub>`,
			want: `<pubsub xmlns="http://jabber.org/protocol/pubsub"><options node="n" jid="user@example.org" subid="s1">` +
				`<x xmlns="jabber:x:data" type="form"><field var="FORM_TYPE" type="hidden"><value>` + pubsub.FormSubOptions + `</value></field></x></options></pubsub>`,
		},
		{
			name: "node-subscriptions",
			opt: service.NodeSubscriptions(func(context.Context, *service.Request) ([]pubsub.Subscription, error) {
				return []pubsub.Subscription{{JID: jid.MustParse("a@example.org"), Node: "n", State: pubsub.SubSubscribed}}, nil
			}),
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><subscriptions node="n"/></pubsub>`,
			want:    `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><subscriptions node="n"><subscription jid="a@example.org" subscription="subscribed"></subscription></subscriptions></pubsub>`,
		},
		{
			name: "node-affiliations",
			opt: service.NodeAffiliations(func(context.Context, *service.Request) ([]pubsub.Affiliation, error) {
				return []pubsub.Affiliation{{JID: jid.MustParse("a@example.org"), Node: "n", Type: pubsub.AffiliationOwner}}, nil
			}),
			typ:     stanza.GetIQ,
			payload: `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><affiliations node="n"/></pubsub>`,
			want:    `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><affiliations node="n"><affiliation jid="a@example.org" affiliation="owner"></affiliation></affiliations></pubsub>`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, rec := newRouter(t, tc.opt)
			require.True(t, r.HandleStanza(iq(t, tc.typ, tc.payload)))
			resp := rec.Next(t)
			require.Equal(t, "result", resp.Attribute("type"), "%v", resp)
			if tc.want == "" {
				assert.Empty(t, resp.Children)
				return
			}
			want, err := stanza.ParseString(tc.want)
			require.NoError(t, err)
			require.Len(t, resp.Children, 1)
			assert.Equal(t, want, resp.Children[0], "got %v", resp.Children[0])
		})
	}
}

func TestFeatures(t *testing.T) {
	r, _ := newRouter(t)
	assert.Empty(t, r.Features())

	opts, _ := requests()
	r, _ = newRouter(t, opts...)
	features := r.Features()
	for _, f := range []pubsub.Feature{
		pubsub.FeaturePublish,
		pubsub.FeatureSubscribe,
		pubsub.FeatureSubscriptionOptions,
		pubsub.FeatureCreateNodes,
		pubsub.FeatureInstantNodes,
		pubsub.FeatureCreateAndConfigure,
		pubsub.FeatureItemIDs,
		pubsub.FeatureManageSubscriptions,
		pubsub.FeatureModifyAffiliations,
	} {
		assert.Contains(t, features, f)
	}
	assert.NotContains(t, features, pubsub.FeatureSubscriptionNotifications)
	assert.IsIncreasing(t, features)

	r, _ = newRouter(t, service.Unsubscribe(func(context.Context, *service.Request) error { return nil }))
	assert.Equal(t, []pubsub.Feature{pubsub.FeatureSubscribe}, r.Features())
}

func TestRegistration(t *testing.T) {
	noop := func(context.Context, *service.Request) error { return nil }
	assert.Panics(t, func() {
		service.New(xmpptest.NewRecorder(), service.Purge(noop), service.Purge(noop))
	})
	assert.Panics(t, func() {
		service.Retract(nil)
	})
	assert.Panics(t, func() {
		service.Items(nil)
	})
}

func TestHandlerTimeout(t *testing.T) {
	r, rec := newRouter(t,
		service.UseConfig(service.Config{HandlerTimeout: 10 * time.Millisecond}),
		service.Purge(func(ctx context.Context, _ *service.Request) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><purge node="n"/></pubsub>`)))
	err := responseError(t, rec.Next(t))
	assert.Equal(t, stanza.InternalServerError, err.Stanza.Condition)
}

func TestClose(t *testing.T) {
	started := make(chan struct{})
	rec := xmpptest.NewRecorder()
	r := service.New(rec, service.Purge(func(ctx context.Context, _ *service.Request) error {
		close(started)
		<-ctx.Done()
		return pubsub.Error{Condition: pubsub.CondServiceUnavailable, Err: ctx.Err()}
	}))
	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><purge node="n"/></pubsub>`)))
	<-started
	require.NoError(t, r.Close())

	// The running handler was canceled and still answered.
	require.Len(t, rec.Sent(), 1)
	assert.Equal(t, stanza.ServiceUnavailable, responseError(t, rec.Next(t)).Stanza.Condition)

	// New requests are refused.
	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><purge node="n"/></pubsub>`)))
	assert.Equal(t, stanza.ServiceUnavailable, responseError(t, rec.Next(t)).Stanza.Condition)

	assert.ErrorIs(t, r.NotifyPurge(context.Background(), serviceJID, "n", userJID), service.ErrClosed)
}

func TestBackground(t *testing.T) {
	r, rec := newRouter(t)
	release := make(chan struct{})
	done := make(chan error, 1)
	require.NoError(t, r.Background(func(ctx context.Context) {
		select {
		case <-release:
			done <- nil
		case <-ctx.Done():
			done <- ctx.Err()
		}
	}))

	closed := make(chan struct{})
	go func() {
		assert.NoError(t, r.Close())
		close(closed)
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(xmpptest.WaitTimeout):
		t.Fatal("background function was not canceled by Close")
	}
	select {
	case <-closed:
	case <-time.After(xmpptest.WaitTimeout):
		t.Fatal("Close did not return")
	}
	close(release)

	assert.ErrorIs(t, r.Background(func(context.Context) {
		t.Error("background function ran after Close")
	}), service.ErrClosed)
	rec.Empty(t)
}

func TestBaseContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, rec := newRouter(t,
		service.BaseContext(ctx),
		service.Purge(func(ctx context.Context, _ *service.Request) error {
			<-ctx.Done()
			return pubsub.Error{Condition: pubsub.CondServiceUnavailable}
		}),
	)
	require.True(t, r.HandleStanza(iq(t, stanza.SetIQ,
		`<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><purge node="n"/></pubsub>`)))
	cancel()
	assert.Equal(t, stanza.ServiceUnavailable, responseError(t, rec.Next(t)).Stanza.Condition)
}

func TestHandleXMPP(t *testing.T) {
	r, rec := newRouter(t)
	el := iq(t, stanza.SetIQ, `<pubsub xmlns="http://jabber.org/protocol/pubsub#owner"><purge node="n"/></pubsub>`)
	tr, start, err := xmpptest.Stream(el.TokenReader())
	require.NoError(t, err)
	require.NoError(t, r.HandleXMPP(tr, start))
	assert.Equal(t, pubsub.CondUnsupported, responseError(t, rec.Next(t)).Condition)
}
