// Package activity provides the scheduling entities that drive a
// component's update step.
//
// A Descriptor is a tagged variant:
//
//	Periodic{Period, Priority, Scheduler, CPUAffinity}
//	NonPeriodic{Priority, Scheduler, CPUAffinity}
//	Slave{Master} | Slave{Period}
//	Sequential{}
//	FileTriggered{File, Timeout, Priority, Scheduler, CPUAffinity}
//
// FromFields decodes the Activity sub-tree of a deployment document and
// reports every missing or mistyped field at once. New builds exactly one
// Activity per descriptor; a slave registers with its master's activity and
// runs right after the master's own step.
//
// Priority, scheduler class and CPU affinity are recorded on the descriptor
// but are not applied to OS threads.
package activity
