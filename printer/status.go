package printer

import "github.com/nixxel-company-limited/thermal-printer-bridge/service"

var statusLabels = map[int]string{
	service.StateRunning:            "Printer is running",
	service.StateInitializing:       "Printer found but still initializing",
	service.StateHardwareAbnormal:   "Printer hardware interface is abnormal and needs to be reprinted",
	service.StateOutOfPaper:         "Printer is out of paper",
	service.StateOverheating:        "Printer is overheating",
	service.StateCoverOpen:          "Printer's cover is not closed",
	service.StateCutterAbnormal:     "Printer's cutter is abnormal",
	service.StateCutterNormal:       "Printer's cutter is normal",
	service.StateBlackMarkNotFound:  "Black Mark Paper is not found",
	service.StatePrinterNotDetected: "Printer does not exist",
}

// StatusLabel returns the label for a device state code. Undefined codes
// have no label.
func StatusLabel(code int) (string, bool) {
	label, ok := statusLabels[code]
	return label, ok
}

// PaperLabel maps a paper width code to its label: 1 is "58mm", anything
// else "80mm".
func PaperLabel(code int) string {
	if code == service.Paper58mm {
		return "58mm"
	}
	return "80mm"
}
