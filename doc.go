/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package orchestrator drives chaincode lifecycle and transactions
// against a Hyperledger Fabric network from the client side.
//
// Packages for end developer usage
//
// pkg/fabsdk: Loads the network configuration and hands out the client and
// channel contexts used by the clients below.
//
// pkg/client/resmgmt: Packages, installs, instantiates and upgrades
// chaincode on peers.
//
// pkg/client/channel: Queries and invokes chaincode, collecting and
// checking endorsements and submitting the transaction for ordering.
//
// pkg/client/commit: Submits endorsed transactions to the orderers and
// waits for the validation outcome delivered by the peers.
//
// Basic workflow
//
//      1) Instantiate a fabsdk instance using a configuration.
//      2) Create a context for a user of an organization, or a channel
//         context for a channel.
//      3) Create a client instance using its New func, passing the context.
//      4) Call fabsdk.Close() to release connections and caches.
package orchestrator
