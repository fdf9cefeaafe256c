/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// SimpleChaincode moves an amount between two accounts
type SimpleChaincode struct{}

// Init creates the two accounts
func (t *SimpleChaincode) Init(stub shim.ChaincodeStubInterface) pb.Response {
	_, args := stub.GetFunctionAndParameters()
	if len(args) != 4 {
		return shim.Error("Incorrect number of arguments. Expecting 4")
	}
	for i := 0; i < 4; i += 2 {
		if _, err := strconv.Atoi(args[i+1]); err != nil {
			return shim.Error("Expecting integer value for asset holding")
		}
		if err := stub.PutState(args[i], []byte(args[i+1])); err != nil {
			return shim.Error(err.Error())
		}
	}
	return shim.Success(nil)
}

// Invoke dispatches query and move
func (t *SimpleChaincode) Invoke(stub shim.ChaincodeStubInterface) pb.Response {
	function, args := stub.GetFunctionAndParameters()
	switch function {
	case "query":
		value, err := stub.GetState(args[0])
		if err != nil {
			return shim.Error(err.Error())
		}
		return shim.Success(value)
	case "move":
		return t.move(stub, args)
	}
	return shim.Error(fmt.Sprintf("unknown function %s", function))
}

func (t *SimpleChaincode) move(stub shim.ChaincodeStubInterface, args []string) pb.Response {
	if len(args) != 3 {
		return shim.Error("Incorrect number of arguments. Expecting 3")
	}
	amount, err := strconv.Atoi(args[2])
	if err != nil {
		return shim.Error("Invalid transaction amount")
	}
	from, err := balance(stub, args[0])
	if err != nil {
		return shim.Error(err.Error())
	}
	to, err := balance(stub, args[1])
	if err != nil {
		return shim.Error(err.Error())
	}
	if err := stub.PutState(args[0], []byte(strconv.Itoa(from-amount))); err != nil {
		return shim.Error(err.Error())
	}
	if err := stub.PutState(args[1], []byte(strconv.Itoa(to+amount))); err != nil {
		return shim.Error(err.Error())
	}
	return shim.Success(nil)
}

func balance(stub shim.ChaincodeStubInterface, key string) (int, error) {
	value, err := stub.GetState(key)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, fmt.Errorf("entity %s not found", key)
	}
	return strconv.Atoi(string(value))
}

func main() {
	if err := shim.Start(new(SimpleChaincode)); err != nil {
		fmt.Printf("Error starting Simple chaincode: %s", err)
	}
}
