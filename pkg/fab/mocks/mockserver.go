/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
)

var logger = logging.NewLogger("orchestrator/mocks")

// grpcServer runs one gRPC server on a loopback listener
type grpcServer struct {
	srv *grpc.Server
	wg  sync.WaitGroup
}

func (s *grpcServer) start(address string, creds credentials.TransportCredentials, register func(*grpc.Server)) string {
	if s.srv != nil {
		panic("mock server already started")
	}

	if creds != nil {
		s.srv = grpc.NewServer(grpc.Creds(creds))
	} else {
		s.srv = grpc.NewServer()
	}

	lis, err := net.Listen("tcp", address)
	if err != nil {
		panic(fmt.Sprintf("Error starting mock server %s", err))
	}
	addr := lis.Addr().String()
	logger.Debugf("Starting mock server [%s]", addr)

	register(s.srv)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(lis); err != nil {
			logger.Debugf("mock server [%s] stopped: %s", addr, err)
		}
	}()

	return addr
}

func (s *grpcServer) stop() {
	if s.srv == nil {
		panic("mock server not started")
	}
	s.srv.Stop()
	s.wg.Wait()
	s.srv = nil
}
