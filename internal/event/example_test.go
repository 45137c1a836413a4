package event_test

import (
	"fmt"

	"github.com/dshills/evmgr/internal/event"
)

func onTimer(code, param int) {
	fmt.Printf("timer fired: tick %d\n", param)
}

func onUnhandled(code, param int) {
	fmt.Printf("unhandled: %s\n", event.CodeName(code))
}

// Example_basicUsage demonstrates registering a listener and draining one event.
func Example_basicUsage() {
	mgr, err := event.NewManager()
	if err != nil {
		fmt.Printf("NewManager failed: %v\n", err)
		return
	}

	mgr.AddListener(event.EventTimer0, event.ListenerFunc(onTimer))

	mgr.Post(event.EventTimer0, 42)
	n := mgr.ProcessEvent()

	fmt.Printf("invocations: %d, pending: %d\n", n, mgr.NumEventsInQueue(event.PriorityLow))

	// Output:
	// timer fired: tick 42
	// invocations: 1, pending: 0
}

// Example_priorities shows that high priority events overtake routine ones.
func Example_priorities() {
	mgr, _ := event.NewManager()

	echo := event.ListenerFunc(func(code, param int) {
		fmt.Println(event.CodeName(code))
	})
	mgr.AddListener(event.EventSerial, echo)
	mgr.AddListener(event.EventKeyPress, echo)

	mgr.QueueEvent(event.EventSerial, 0, event.PriorityLow)
	mgr.QueueEvent(event.EventKeyPress, 'q', event.PriorityHigh)
	mgr.ProcessAllEvents()

	// Output:
	// keypress
	// serial
}

// Example_defaultListener shows the fallback for events nobody handles.
func Example_defaultListener() {
	mgr, _ := event.NewManager()
	mgr.SetDefaultListener(event.ListenerFunc(onUnhandled))

	mgr.Post(event.EventUser3, 0)
	mgr.ProcessAllEvents()

	// Output: unhandled: user3
}

// Example_idempotentRegistration shows that registering a pair twice is harmless.
func Example_idempotentRegistration() {
	mgr, _ := event.NewManager()

	fmt.Println(mgr.AddListener(7, event.ListenerFunc(onTimer)))
	fmt.Println(mgr.AddListener(7, event.ListenerFunc(onTimer)))
	fmt.Println(mgr.NumListeners())

	// Output:
	// true
	// false
	// 1
}
