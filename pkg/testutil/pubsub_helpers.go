// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub/pstest"
	pubsubV1 "google.golang.org/genproto/googleapis/pubsub/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	// PubSubProjectID is the project the mock server hosts its resources under
	PubSubProjectID = "project-test"

	// PubSubTopic is created on the mock server at startup
	PubSubTopic = "test-topic"

	// PubSubSubscription is attached to PubSubTopic at startup
	PubSubSubscription = "test-sub"
)

// InitMockPubsubServer creates a mock PubSub server on the given port holding a single
// topic and subscription. The emulator environment is pointed at it so that clients
// created afterwards talk to the mock.
func InitMockPubsubServer(port int) (*pstest.Server, *grpc.ClientConn) {
	os.Setenv("PUBSUB_PROJECT_ID", PubSubProjectID)
	os.Setenv("PUBSUB_EMULATOR_HOST", fmt.Sprint("localhost:", port))

	ctx := context.Background()
	srv := pstest.NewServerWithPort(port)

	conn, err := grpc.Dial(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(err)
	}

	topic := fmt.Sprintf("projects/%s/topics/%s", PubSubProjectID, PubSubTopic)
	if _, err = srv.GServer.CreateTopic(ctx, &pubsubV1.Topic{Name: topic}); err != nil {
		panic(err)
	}

	_, err = srv.GServer.CreateSubscription(ctx, &pubsubV1.Subscription{
		Name:               fmt.Sprintf("projects/%s/subscriptions/%s", PubSubProjectID, PubSubSubscription),
		Topic:              topic,
		AckDeadlineSeconds: 10,
	})
	if err != nil {
		panic(err)
	}

	return srv, conn
}
