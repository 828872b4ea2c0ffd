// Package template renders deployment documents before they are parsed.
//
// Documents may use text/template actions together with the sprig function
// library, for example:
//
//	sensor:
//	  Type: Sensor
//	  Properties:
//	    rate: {{ env "SENSOR_RATE" | default "10" }}
//	    calibration: {{ .Dir }}/calib.yaml
//
// The default context exposes .Source, .Dir and .Env. Callers may add their
// own variables with MergeContexts.
package template
