/*
Package events implements an in-process publish/subscribe broker used
to decouple device topology changes (a device appearing or being
discontinued) from the components that react to them: the Logger
Manager reacts by assigning or retiring a device. A logger.down event
type is also defined, but no component in this module publishes or
handles it.

# Architecture

	┌──────────────────── EVENT SYSTEM ──────────────────────┐
	│  Broker                                                  │
	│    - Start() / Stop()                                    │
	│    - Publish(*Event)                                     │
	│    - Subscribe() Subscriber  (chan *Event)                │
	│    - broadcast to all current subscribers, non-blocking  │
	│                                                            │
	│  Event types:                                             │
	│    - device.appeared                                      │
	│    - device.discontinued                                  │
	│    - logger.down                                          │
	└────────────────────────────────────────────────────────┘

# Usage

	import "github.com/karabo-go/karabologd/pkg/events"

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			switch event.Type {
			case events.EventDeviceAppeared:
				handleDeviceAppeared(event.DeviceID)
			case events.EventDeviceDiscontinued:
				handleDeviceDiscontinued(event.DeviceID)
			}
		}
	}()

	broker.Publish(&events.Event{
		Type:     events.EventDeviceAppeared,
		DeviceID: "XFEL/MOTOR/1",
	})

# Integration Points

  - pkg/manager: subscribes to device.appeared/device.discontinued to
    drive AddDevicesToBeLogged/TagDeviceToBeDiscontinued
  - pkg/reconciler: does not subscribe; it polls staleness on a timer

# Design Patterns

Non-blocking Publish/Broadcast:
  - broadcast never blocks on a slow subscriber; a subscriber's channel
    is buffered and a full channel drops the event for that subscriber

Subscribe-Before-Publish:
  - A subscriber only receives events published after it subscribes;
    there is no replay of history
*/
package events
