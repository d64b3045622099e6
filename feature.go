// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package pubsub

// Feature is a protocol feature that a pubsub service may support.
// The string form is the name registered for the feature, and the name used in
// the feature attribute of an unsupported error condition.
type Feature uint8

// A list of features.
const (
	FeatureConfigNode              Feature = iota // config-node
	FeatureCreateAndConfigure                     // create-and-configure
	FeatureCreateNodes                            // create-nodes
	FeatureDeleteNodes                            // delete-nodes
	FeatureInstantNodes                           // instant-nodes
	FeatureItemIDs                                // item-ids
	FeatureManageSubscriptions                    // manage-subscriptions
	FeatureModifyAffiliations                     // modify-affiliations
	FeaturePublish                                // publish
	FeaturePublishOptions                         // publish-options
	FeaturePurgeNodes                             // purge-nodes
	FeatureRetractItems                           // retract-items
	FeatureRetrieveAffiliations                   // retrieve-affiliations
	FeatureRetrieveDefault                        // retrieve-default
	FeatureRetrieveDefaultSub                     // retrieve-default-sub
	FeatureRetrieveItems                          // retrieve-items
	FeatureRetrieveSubscriptions                  // retrieve-subscriptions
	FeatureSubscribe                              // subscribe
	FeatureSubscriptionOptions                    // subscription-options
	FeatureSubscriptionNotifications              // subscription-notifications
)

// Var returns the service discovery feature var for f.
func (f Feature) Var() string {
	return NS + "#" + f.String()
}

// ParseFeature returns the feature with the provided name.
func ParseFeature(name string) (Feature, bool) {
	for f := FeatureConfigNode; f <= FeatureSubscriptionNotifications; f++ {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}
