// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package simulator

import (
	"fmt"
	"math"
	"strconv"
)

const (
	responseOK    = "OK/"
	responseFault = "Er/"
)

// handle executes one command and returns the framed response. The clear
// buffer command has no response.
func (p *Pump) handle(command string) string {
	if command == "#" {
		return ""
	}
	if len(command) < 2 {
		return responseFault
	}
	mnemonic, arg := command[:2], command[2:]

	// commands that change a setting
	switch mnemonic {
	case "fi":
		return p.setFlowrate(arg)
	case "uc":
		if arg != "" {
			return p.setCompensation(arg)
		}
	case "up", "lp":
		if arg != "" {
			return p.setLimit(mnemonic, arg)
		}
	case "lm":
		return p.setLeakMode(arg)
	case "ss":
		return p.setSolvent(arg)
	}
	if arg != "" {
		return responseFault
	}

	s := &p.state
	switch mnemonic {
	case "ru":
		if s.stall || s.upperFault || s.lowerFault {
			return responseFault
		}
		s.running = true
	case "st":
		s.running = false
	case "ke":
		s.keypad = true
	case "kd":
		s.keypad = false
	case "cf":
		s.stall, s.upperFault, s.lowerFault = false, false, false
	case "re":
		p.state = p.factoryState()
	case "zs":
		s.strokes = 0
	case "cc":
		if s.running {
			s.strokes++
		}
		return fmt.Sprintf("OK,%s,%s/", p.formatPressure(p.currentPressure()), p.formatFlowrate())
	case "cs":
		return fmt.Sprintf("OK,%s,%s,%s,%s,0,%s,0/",
			p.formatFlowrate(), p.formatLimit(s.upperLimit), p.formatLimit(s.lowerLimit), p.cfg.unit, flag(s.running))
	case "pi":
		return fmt.Sprintf("OK,%s,%s,%.2f,%s,0,1,0,0,%s,%s,%s,%s,0,0,0,0,%s/",
			p.formatFlowrate(), flag(s.running), float64(s.compensation)/1000, p.cfg.head,
			flag(s.upperFault), flag(s.lowerFault), flag(s.prime), flag(s.keypad), flag(s.stall))
	case "rf":
		return fmt.Sprintf("OK,%s,%s,%s/", flag(s.stall), flag(s.upperFault), flag(s.lowerFault))
	case "id":
		return "OK," + p.cfg.firmware + "/"
	case "gs":
		return fmt.Sprintf("OK,GS:%d/", s.strokes)
	case "uc":
		return fmt.Sprintf("OK,UC:%.1f/", float64(s.compensation)/10)
	case "up":
		return fmt.Sprintf("OK,UP:%s/", p.formatLimit(s.upperLimit))
	case "lp":
		return fmt.Sprintf("OK,LP:%s/", p.formatLimit(s.lowerLimit))
	case "mf":
		return fmt.Sprintf("OK,MF:%.*f/", p.cfg.decimals, p.cfg.maxFlowrate)
	case "pr":
		if !p.cfg.pressureSensor {
			return responseFault
		}
		return fmt.Sprintf("OK,%s/", p.formatPressure(p.currentPressure()))
	case "pu":
		if !p.cfg.pressureSensor {
			return responseFault
		}
		return "OK," + p.cfg.unit + "/"
	case "mp":
		if !p.cfg.pressureSensor {
			return responseFault
		}
		return fmt.Sprintf("OK,MP:%s/", p.formatPressure(p.cfg.maxPressure))
	case "ls":
		return fmt.Sprintf("OK,LS:%s/", flag(p.cfg.leakSensor && s.leak))
	case "rs":
		if !p.cfg.solventSelect {
			return responseFault
		}
		return fmt.Sprintf("OK,%d/", s.solvent)
	default:
		return responseFault
	}
	return responseOK
}

func (p *Pump) setFlowrate(arg string) string {
	units, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || units < 0 {
		return responseFault
	}
	if float64(units)/p.flowrateScale() > p.cfg.maxFlowrate {
		return responseFault
	}
	p.state.flowrate = units
	return responseOK
}

func (p *Pump) setCompensation(arg string) string {
	if len(arg) != 4 {
		return responseFault
	}
	v, err := strconv.Atoi(arg)
	if err != nil || v < 850 || v > 1150 {
		return responseFault
	}
	p.state.compensation = v
	return responseOK
}

func (p *Pump) setLimit(mnemonic, arg string) string {
	v, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || v < 0 || v > p.encodePressure(p.cfg.maxPressure) {
		return responseFault
	}
	if mnemonic == "up" {
		p.state.upperLimit = v
	} else {
		p.state.lowerLimit = v
	}
	return responseOK
}

func (p *Pump) setLeakMode(arg string) string {
	v, err := strconv.Atoi(arg)
	if err != nil || v < 0 || v > 2 {
		return responseFault
	}
	p.state.leakMode = v
	return responseOK
}

func (p *Pump) setSolvent(arg string) string {
	if !p.cfg.solventSelect {
		return responseFault
	}
	v, err := strconv.Atoi(arg)
	if err != nil || v < 0 {
		return responseFault
	}
	p.state.solvent = v
	return responseOK
}

func (p *Pump) currentPressure() float64 {
	if !p.state.running {
		return 0
	}
	return p.state.pressure
}

// flowrateScale converts fi units to mL/min
func (p *Pump) flowrateScale() float64 {
	return math.Pow10(p.cfg.decimals)
}

func (p *Pump) formatFlowrate() string {
	return strconv.FormatFloat(float64(p.state.flowrate)/p.flowrateScale(), 'f', p.cfg.decimals, 64)
}

// pressureDecimals is the precision of pressure values in the pump's unit
func (p *Pump) pressureDecimals() int {
	switch p.cfg.unit {
	case "bar":
		return 1
	case "MPa":
		return 2
	}
	return 0
}

// encodePressure converts a pressure into up/lp units
func (p *Pump) encodePressure(v float64) int64 {
	return int64(math.Round(v * math.Pow10(p.pressureDecimals())))
}

func (p *Pump) formatLimit(v int64) string {
	return p.formatPressure(float64(v) / math.Pow10(p.pressureDecimals()))
}

func (p *Pump) formatPressure(v float64) string {
	return strconv.FormatFloat(v, 'f', p.pressureDecimals(), 64)
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
